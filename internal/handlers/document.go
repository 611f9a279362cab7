package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/middleware"
	"github.com/mirelhas/task-docs-api/internal/preview"
	"github.com/mirelhas/task-docs-api/internal/services"
)

// DocumentHandler serves task attachments: authenticated download and
// inline preview, plus the token-based public preview flow.
type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// DownloadDocument streams an attachment as a forced download with its
// original filename. Task authorization is handled by RequireTaskAccess.
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	h.streamDocument(c, "attachment")
}

// PreviewDocument streams an attachment for inline display
func (h *DocumentHandler) PreviewDocument(c *gin.Context) {
	h.streamDocument(c, "inline")
}

func (h *DocumentHandler) streamDocument(c *gin.Context, disposition string) {
	task, exists := middleware.GetContextTask(c)
	if !exists {
		apierrors.InternalError(c, errors.New("task missing from context"))
		return
	}

	doc, err := h.documentService.FindDocument(task, c.Param("documentId"))
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	stream, err := h.documentService.Open(doc)
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	defer stream.Close()

	c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, stream, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, doc.OriginalName),
	})
}

// CreatePreviewToken mints a time-boxed preview token for an attachment and
// returns the public URL that serves it without authentication.
func (h *DocumentHandler) CreatePreviewToken(c *gin.Context) {
	task, exists := middleware.GetContextTask(c)
	if !exists {
		apierrors.InternalError(c, errors.New("task missing from context"))
		return
	}

	previewURL, err := h.documentService.IssuePreviewToken(c.Request.Context(), task, c.Param("documentId"))
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"previewUrl": previewURL,
	})
}

// PublicPreview streams an attachment for any bearer of a live preview
// token. This endpoint sits outside the authentication gate; the token is
// the only credential.
func (h *DocumentHandler) PublicPreview(c *gin.Context) {
	grant, stream, err := h.documentService.OpenPreview(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	defer stream.Close()

	c.DataFromReader(http.StatusOK, grant.Size, grant.ContentType, stream, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", grant.OriginalName),
	})
}

// respondDocumentError maps document and preview errors to HTTP responses
func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		apierrors.NotFound(c, "Document not found")
	case errors.Is(err, services.ErrFileNotFound):
		apierrors.NotFound(c, "File not found")
	case errors.Is(err, preview.ErrTokenExpired):
		apierrors.Unauthorized(c, "Preview link has expired")
	case errors.Is(err, preview.ErrTokenNotFound):
		apierrors.NotFound(c, "Invalid preview link")
	default:
		apierrors.InternalError(c, err)
	}
}
