// Package preview implements short-lived opaque tokens that grant
// unauthenticated read access to a single task attachment.
package preview

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTokenNotFound is returned for tokens that were never issued or have
	// already been purged.
	ErrTokenNotFound = errors.New("preview token not found")
	// ErrTokenExpired is returned on the first access after expiry; the entry
	// is purged at that point.
	ErrTokenExpired = errors.New("preview token expired")
)

// Grant is the snapshot of attachment metadata captured at issue time.
// Resolving a token returns this snapshot, not a live re-fetch, so later
// edits or deletes of the task do not retroactively change the preview.
type Grant struct {
	TaskID       uint64 `json:"taskId"`
	DocumentID   string `json:"documentId"`
	FileName     string `json:"filename"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// Registry issues and resolves preview tokens. Tokens are multi-use until
// expiry; resolving does not consume them.
type Registry interface {
	Issue(ctx context.Context, grant Grant, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (*Grant, error)
}

// newToken returns a 256-bit random token in hex.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
