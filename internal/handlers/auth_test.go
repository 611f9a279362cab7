package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/mirelhas/task-docs-api/internal/auth"
	"github.com/mirelhas/task-docs-api/internal/constants"
	"github.com/mirelhas/task-docs-api/internal/database"
	"github.com/mirelhas/task-docs-api/internal/dto"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/repository"
	"github.com/mirelhas/task-docs-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AuthHandlerTestSuite defines the test suite for AuthHandler
type AuthHandlerTestSuite struct {
	suite.Suite
	db         *gorm.DB
	jwtService *auth.JWTService
	handler    *AuthHandler
}

// SetupTest runs before each test
func (suite *AuthHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.User{}, &models.Task{}, &models.Document{})
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	userRepo := repository.NewUserRepository(suite.db)
	suite.jwtService = auth.NewJWTService("test-secret")
	suite.handler = NewAuthHandler(services.NewAuthService(userRepo), suite.jwtService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *AuthHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// createJSONContext creates a request context with a JSON body
func (suite *AuthHandlerTestSuite) createJSONContext(method, url string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	return c, w
}

// registerUser drives the register handler
func (suite *AuthHandlerTestSuite) registerUser(name, email, password string) dto.AuthResponse {
	c, w := suite.createJSONContext("POST", "/api/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	})
	suite.handler.Register(c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response dto.AuthResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// TestRegister_Success tests registration
func (suite *AuthHandlerTestSuite) TestRegister_Success() {
	response := suite.registerUser("Alice", "alice@example.com", "password123")

	assert.True(suite.T(), response.Success)
	assert.NotEmpty(suite.T(), response.Token)
	assert.Equal(suite.T(), "Alice", response.Data.Name)
	assert.Equal(suite.T(), "alice@example.com", response.Data.Email)
	assert.Equal(suite.T(), models.RoleUser, response.Data.Role)

	// The issued token is valid
	claims, err := suite.jwtService.ValidateToken(response.Token)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), response.Data.ID, claims.UserID)
}

// TestRegister_NormalizesEmail tests email case folding
func (suite *AuthHandlerTestSuite) TestRegister_NormalizesEmail() {
	response := suite.registerUser("Alice", "  Alice@Example.COM ", "password123")

	assert.Equal(suite.T(), "alice@example.com", response.Data.Email)
}

// TestRegister_DuplicateEmail tests that emails are unique
func (suite *AuthHandlerTestSuite) TestRegister_DuplicateEmail() {
	suite.registerUser("Alice", "alice@example.com", "password123")

	c, w := suite.createJSONContext("POST", "/api/auth/register", gin.H{
		"name":     "Impostor",
		"email":    "ALICE@example.com",
		"password": "password456",
	})
	suite.handler.Register(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "User already exists")
}

// TestRegister_ShortPassword tests the minimum password length
func (suite *AuthHandlerTestSuite) TestRegister_ShortPassword() {
	c, w := suite.createJSONContext("POST", "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "short",
	})
	suite.handler.Register(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Password must be at least 6 characters")
}

// TestRegister_MissingFields tests body validation
func (suite *AuthHandlerTestSuite) TestRegister_MissingFields() {
	c, w := suite.createJSONContext("POST", "/api/auth/register", gin.H{
		"email": "alice@example.com",
	})
	suite.handler.Register(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestLogin_Success tests login with valid credentials
func (suite *AuthHandlerTestSuite) TestLogin_Success() {
	suite.registerUser("Alice", "alice@example.com", "password123")

	c, w := suite.createJSONContext("POST", "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	suite.handler.Login(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.AuthResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response.Success)
	assert.NotEmpty(suite.T(), response.Token)
	assert.Equal(suite.T(), "alice@example.com", response.Data.Email)
}

// TestLogin_WrongPassword tests login with a bad password
func (suite *AuthHandlerTestSuite) TestLogin_WrongPassword() {
	suite.registerUser("Alice", "alice@example.com", "password123")

	c, w := suite.createJSONContext("POST", "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	suite.handler.Login(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid credentials")
}

// TestLogin_UnknownEmail tests that unknown emails are indistinguishable from
// wrong passwords
func (suite *AuthHandlerTestSuite) TestLogin_UnknownEmail() {
	c, w := suite.createJSONContext("POST", "/api/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	suite.handler.Login(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid credentials")
}

// TestGetCurrentUser_Success tests the /me endpoint
func (suite *AuthHandlerTestSuite) TestGetCurrentUser_Success() {
	registered := suite.registerUser("Alice", "alice@example.com", "password123")

	var user models.User
	suite.Require().NoError(suite.db.First(&user, registered.Data.ID).Error)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/auth/me", nil)
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUser, &user)

	suite.handler.GetCurrentUser(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.UserResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), user.ID, response.Data.ID)
	assert.Equal(suite.T(), "alice@example.com", response.Data.Email)
	// The password hash never leaves the server
	assert.NotContains(suite.T(), w.Body.String(), user.PasswordHash)
}

// TestGetCurrentUser_NoUser tests the endpoint without authentication
func (suite *AuthHandlerTestSuite) TestGetCurrentUser_NoUser() {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/auth/me", nil)

	suite.handler.GetCurrentUser(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

// TestAuthHandlerTestSuite runs the test suite
func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
