package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a PDF attachment owned by exactly one task. FileName is the
// opaque key used to resolve the blob in storage; OriginalName is the
// untrusted name supplied by the uploader and is only ever used as a
// download filename, never for path construction.
type Document struct {
	ID           string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"-"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"originalName"`
	Size         int64     `gorm:"not null" json:"size"`
	ContentType  string    `gorm:"type:varchar(100);not null" json:"mimetype"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	return nil
}
