package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/mirelhas/task-docs-api/internal/constants"
	"github.com/mirelhas/task-docs-api/internal/database"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/preview"
	"github.com/mirelhas/task-docs-api/internal/services"
	"github.com/mirelhas/task-docs-api/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const pdfContent = "%PDF-1.4\nsample document body"

// DocumentHandlerTestSuite defines the test suite for DocumentHandler
type DocumentHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	blobs    *storage.LocalStore
	registry *preview.MemoryRegistry
	handler  *DocumentHandler
}

// SetupTest runs before each test
func (suite *DocumentHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Document{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	suite.blobs = storage.NewLocalStore(suite.T().TempDir())
	suite.registry = preview.NewMemoryRegistry(0)

	service := services.NewDocumentService(suite.blobs, suite.registry, time.Hour)
	suite.handler = NewDocumentHandler(service)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *DocumentHandlerTestSuite) TearDownTest() {
	suite.registry.Close()
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// createTaskWithDocument stores a blob and creates a task referencing it
func (suite *DocumentHandlerTestSuite) createTaskWithDocument(originalName string) *models.Task {
	user := &models.User{
		Name:         "Owner",
		Email:        "owner@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	}
	suite.Require().NoError(suite.db.Create(user).Error)

	key, size, err := suite.blobs.Store(strings.NewReader(pdfContent), originalName)
	suite.Require().NoError(err)

	task := &models.Task{
		Title:        "Task with attachment",
		Description:  "Test Description",
		Status:       models.TaskStatusPending,
		Priority:     models.TaskPriorityMedium,
		DueDate:      time.Now().Add(48 * time.Hour),
		CreatedByID:  user.ID,
		AssignedToID: user.ID,
		Documents: []models.Document{{
			FileName:     key,
			OriginalName: originalName,
			Size:         size,
			ContentType:  "application/pdf",
		}},
	}
	suite.Require().NoError(suite.db.Create(task).Error)

	var loaded models.Task
	err = suite.db.Preload("AssignedTo").Preload("CreatedBy").Preload("Documents").First(&loaded, task.ID).Error
	suite.Require().NoError(err)
	return &loaded
}

// createTaskContext creates a request context with the task preloaded, as
// RequireTaskAccess would leave it
func (suite *DocumentHandlerTestSuite) createTaskContext(method, url string, task *models.Task, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, nil)

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	c.Set(constants.ContextKeyTask, task)

	return c, w
}

// TestDownloadDocument_Success tests the authenticated download path
func (suite *DocumentHandlerTestSuite) TestDownloadDocument_Success() {
	task := suite.createTaskWithDocument("report.pdf")
	doc := task.Documents[0]

	c, w := suite.createTaskContext("GET", "/api/tasks/1/documents/"+doc.ID, task,
		gin.Param{Key: "documentId", Value: doc.ID})

	suite.handler.DownloadDocument(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), pdfContent, w.Body.String())
	assert.Equal(suite.T(), "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(suite.T(), `attachment; filename="report.pdf"`, w.Header().Get("Content-Disposition"))
}

// TestPreviewDocument_Success tests inline streaming
func (suite *DocumentHandlerTestSuite) TestPreviewDocument_Success() {
	task := suite.createTaskWithDocument("report.pdf")
	doc := task.Documents[0]

	c, w := suite.createTaskContext("GET", "/api/tasks/1/preview/"+doc.ID, task,
		gin.Param{Key: "documentId", Value: doc.ID})

	suite.handler.PreviewDocument(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), pdfContent, w.Body.String())
	assert.Equal(suite.T(), `inline; filename="report.pdf"`, w.Header().Get("Content-Disposition"))
}

// TestDownloadDocument_UnknownDocument tests an id not on the task
func (suite *DocumentHandlerTestSuite) TestDownloadDocument_UnknownDocument() {
	task := suite.createTaskWithDocument("report.pdf")

	c, w := suite.createTaskContext("GET", "/api/tasks/1/documents/nope", task,
		gin.Param{Key: "documentId", Value: "nope"})

	suite.handler.DownloadDocument(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Document not found")
}

// TestDownloadDocument_MissingBlob tests metadata whose blob vanished
func (suite *DocumentHandlerTestSuite) TestDownloadDocument_MissingBlob() {
	task := suite.createTaskWithDocument("report.pdf")
	doc := task.Documents[0]

	suite.Require().NoError(suite.blobs.Remove(doc.FileName))

	c, w := suite.createTaskContext("GET", "/api/tasks/1/documents/"+doc.ID, task,
		gin.Param{Key: "documentId", Value: doc.ID})

	suite.handler.DownloadDocument(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "File not found")
}

// TestCreatePreviewToken_Success tests minting a preview token
func (suite *DocumentHandlerTestSuite) TestCreatePreviewToken_Success() {
	task := suite.createTaskWithDocument("report.pdf")
	doc := task.Documents[0]

	c, w := suite.createTaskContext("GET", "/api/tasks/1/create-preview-token/"+doc.ID, task,
		gin.Param{Key: "documentId", Value: doc.ID})

	suite.handler.CreatePreviewToken(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response struct {
		Success    bool   `json:"success"`
		PreviewURL string `json:"previewUrl"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response.Success)
	assert.True(suite.T(), strings.HasPrefix(response.PreviewURL, services.PublicPreviewPath))

	token := strings.TrimPrefix(response.PreviewURL, services.PublicPreviewPath)
	assert.Len(suite.T(), token, 64)
}

// TestCreatePreviewToken_UnknownDocument tests minting against a bad id
func (suite *DocumentHandlerTestSuite) TestCreatePreviewToken_UnknownDocument() {
	task := suite.createTaskWithDocument("report.pdf")

	c, w := suite.createTaskContext("GET", "/api/tasks/1/create-preview-token/nope", task,
		gin.Param{Key: "documentId", Value: "nope"})

	suite.handler.CreatePreviewToken(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Document not found")
}

// issuePreviewToken mints a token through the handler and extracts it
func (suite *DocumentHandlerTestSuite) issuePreviewToken(task *models.Task, documentID string) string {
	c, w := suite.createTaskContext("GET", "/api/tasks/1/create-preview-token/"+documentID, task,
		gin.Param{Key: "documentId", Value: documentID})
	suite.handler.CreatePreviewToken(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		PreviewURL string `json:"previewUrl"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return strings.TrimPrefix(response.PreviewURL, services.PublicPreviewPath)
}

// TestPublicPreview_Success tests the unauthenticated preview flow end to end
func (suite *DocumentHandlerTestSuite) TestPublicPreview_Success() {
	task := suite.createTaskWithDocument("report.pdf")
	token := suite.issuePreviewToken(task, task.Documents[0].ID)

	// No user or task in context: the token is the only credential
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}

	suite.handler.PublicPreview(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), pdfContent, w.Body.String())
	assert.Equal(suite.T(), "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(suite.T(), `inline; filename="report.pdf"`, w.Header().Get("Content-Disposition"))
}

// TestPublicPreview_TokenIsReusable tests multiple uses within the window
func (suite *DocumentHandlerTestSuite) TestPublicPreview_TokenIsReusable() {
	task := suite.createTaskWithDocument("report.pdf")
	token := suite.issuePreviewToken(task, task.Documents[0].ID)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/"+token, nil)
		c.Params = gin.Params{{Key: "token", Value: token}}

		suite.handler.PublicPreview(c)
		assert.Equal(suite.T(), http.StatusOK, w.Code)
	}
}

// TestPublicPreview_ExpiredToken tests a token past its window
func (suite *DocumentHandlerTestSuite) TestPublicPreview_ExpiredToken() {
	task := suite.createTaskWithDocument("report.pdf")

	// A service with a negative TTL issues tokens that are already expired
	expiredService := services.NewDocumentService(suite.blobs, suite.registry, -time.Minute)
	handler := NewDocumentHandler(expiredService)

	doc := task.Documents[0]
	c, w := suite.createTaskContext("GET", "/api/tasks/1/create-preview-token/"+doc.ID, task,
		gin.Param{Key: "documentId", Value: doc.ID})
	handler.CreatePreviewToken(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		PreviewURL string `json:"previewUrl"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	token := strings.TrimPrefix(response.PreviewURL, services.PublicPreviewPath)

	w = httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w)
	c2.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/"+token, nil)
	c2.Params = gin.Params{{Key: "token", Value: token}}

	suite.handler.PublicPreview(c2)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Preview link has expired")

	// A second attempt sees an unknown token: expired entries are purged
	w = httptest.NewRecorder()
	c3, _ := gin.CreateTestContext(w)
	c3.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/"+token, nil)
	c3.Params = gin.Params{{Key: "token", Value: token}}

	suite.handler.PublicPreview(c3)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid preview link")
}

// TestPublicPreview_UnknownToken tests a token that was never issued
func (suite *DocumentHandlerTestSuite) TestPublicPreview_UnknownToken() {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/bogus", nil)
	c.Params = gin.Params{{Key: "token", Value: "bogus"}}

	suite.handler.PublicPreview(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid preview link")
}

// TestPublicPreview_BlobRemovedAfterIssue tests a grant whose blob vanished
func (suite *DocumentHandlerTestSuite) TestPublicPreview_BlobRemovedAfterIssue() {
	task := suite.createTaskWithDocument("report.pdf")
	token := suite.issuePreviewToken(task, task.Documents[0].ID)

	suite.Require().NoError(suite.blobs.Remove(task.Documents[0].FileName))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/tasks/public-doc/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}

	suite.handler.PublicPreview(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "File not found")
}

// TestDocumentHandlerTestSuite runs the test suite
func TestDocumentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentHandlerTestSuite))
}
