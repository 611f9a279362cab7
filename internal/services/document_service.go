package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/preview"
	"github.com/mirelhas/task-docs-api/internal/storage"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileNotFound     = errors.New("file not found")
)

// PublicPreviewPath is the URL path prefix of the unauthenticated preview
// endpoint; the opaque token is appended to it.
const PublicPreviewPath = "/api/tasks/public-doc/"

// DocumentService is the gateway between task attachments and their blobs:
// it locates attachment metadata, opens blob streams, and mints and resolves
// time-boxed preview tokens.
type DocumentService struct {
	blobs    storage.BlobStore
	registry preview.Registry
	tokenTTL time.Duration
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(blobs storage.BlobStore, registry preview.Registry, tokenTTL time.Duration) *DocumentService {
	return &DocumentService{
		blobs:    blobs,
		registry: registry,
		tokenTTL: tokenTTL,
	}
}

// FindDocument locates an attachment on a task by id
func (s *DocumentService) FindDocument(task *models.Task, documentID string) (*models.Document, error) {
	for i := range task.Documents {
		if task.Documents[i].ID == documentID {
			return &task.Documents[i], nil
		}
	}
	return nil, ErrDocumentNotFound
}

// Open returns a read stream for an attachment's blob. Metadata referencing
// a blob that is absent from storage reports ErrFileNotFound.
func (s *DocumentService) Open(doc *models.Document) (io.ReadCloser, error) {
	stream, err := s.blobs.Open(doc.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return stream, nil
}

// IssuePreviewToken mints a preview token for an attachment and returns the
// public URL path that serves it. The token snapshots the attachment
// metadata at issue time.
func (s *DocumentService) IssuePreviewToken(ctx context.Context, task *models.Task, documentID string) (string, error) {
	doc, err := s.FindDocument(task, documentID)
	if err != nil {
		return "", err
	}

	token, err := s.registry.Issue(ctx, preview.Grant{
		TaskID:       task.ID,
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		OriginalName: doc.OriginalName,
		ContentType:  doc.ContentType,
		Size:         doc.Size,
	}, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue preview token: %w", err)
	}

	return PublicPreviewPath + token, nil
}

// OpenPreview resolves a preview token and opens the snapshotted blob.
// Registry errors (expired, unknown) pass through unchanged; a vanished blob
// reports ErrFileNotFound.
func (s *DocumentService) OpenPreview(ctx context.Context, token string) (*preview.Grant, io.ReadCloser, error) {
	grant, err := s.registry.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.blobs.Open(grant.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open preview blob: %w", err)
	}

	return grant, stream, nil
}
