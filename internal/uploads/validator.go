package uploads

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/mirelhas/task-docs-api/internal/constants"
)

var (
	// ErrInvalidMimeType is returned for any upload that is not a PDF.
	ErrInvalidMimeType = errors.New("only PDF files are allowed")
	// ErrFileTooLarge is returned when a file exceeds the per-file size cap.
	ErrFileTooLarge = errors.New("file too large, maximum size is 5MB")
	// ErrTooManyAttachments is returned when accepting the upload would push
	// the task above the attachment cap.
	ErrTooManyAttachments = errors.New("too many documents, maximum is 3")
)

// FormFieldDocuments is the multipart field carrying uploaded files.
const FormFieldDocuments = "documents"

// FormFieldExistingDocuments is the multipart field listing retained
// attachment ids on update.
const FormFieldExistingDocuments = "existingDocuments"

// ValidateFiles checks a batch of candidate uploads against the per-file and
// per-task constraints. retainedCount is the number of attachments the task
// will keep after the edit; the cap is evaluated against the post-edit set.
// Validation is all-or-nothing: the first rejection fails the whole batch.
func ValidateFiles(files []*multipart.FileHeader, retainedCount int) error {
	if retainedCount+len(files) > constants.MaxDocumentsPerTask {
		return ErrTooManyAttachments
	}

	for _, file := range files {
		if mediaType(file) != constants.DocumentContentType {
			return ErrInvalidMimeType
		}
		if file.Size > constants.MaxDocumentSize {
			return ErrFileTooLarge
		}
	}

	return nil
}

// RetainedSet normalizes the existingDocuments form field into a set of
// retained attachment ids. The second return value reports whether the field
// was present at all: absent means "keep everything", while present-but-empty
// means "remove everything". A single value and a repeated field are treated
// identically.
func RetainedSet(form *multipart.Form) (map[string]struct{}, bool) {
	if form == nil {
		return nil, false
	}

	values, present := form.Value[FormFieldExistingDocuments]
	if !present {
		return nil, false
	}

	retained := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		retained[v] = struct{}{}
	}

	return retained, true
}

// mediaType returns the declared content type of an upload without parameters.
func mediaType(file *multipart.FileHeader) string {
	ct := file.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
