package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collaborative-canvas/internal/errors"
	"collaborative-canvas/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(user *User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockService) Login(email, password string) (*User, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) GetUserByID(id string) (*User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)
	router.GET("/api/auth/profile", func(c *gin.Context) {
		// stand-in for the auth middleware
		c.Set("user_id", c.GetHeader("X-Test-User"))
		handler.GetProfile(c)
	})
	return router
}

func TestRegisterSuccess(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("Register", mock.MatchedBy(func(u *User) bool {
		return u.Email == "alice@example.com" && u.Password == "secret123"
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*User).ID = "11111111-1111-1111-1111-111111111111"
	}).Return(nil)

	body, _ := json.Marshal(gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["token"])
	userPayload := response["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", userPayload["email"])
	_, hasPassword := userPayload["password"]
	assert.False(t, hasPassword)

	service.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	body, _ := json.Marshal(gin.H{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "Register")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("Register", mock.Anything).Return(errors.Unprocessable("User already registered", nil))

	body, _ := json.Marshal(gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginSuccess(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("Login", "alice@example.com", "secret123").Return(&User{
		ID:        "11111111-1111-1111-1111-111111111111",
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}, nil)

	body, _ := json.Marshal(gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["token"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("Login", "alice@example.com", "wrong").
		Return(nil, errors.Unauthorized("Invalid credentials", nil))

	body, _ := json.Marshal(gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetProfile(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("GetUserByID", "user-1").Return(&User{
		ID:    "user-1",
		Name:  "Alice",
		Email: "alice@example.com",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("X-Test-User", "user-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response SafeUser
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "alice@example.com", response.Email)
}
