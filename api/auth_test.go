package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"finance/config"
	"finance/database"
	"finance/middleware"
	"finance/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func setupTestConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	gin.SetMode(gin.TestMode)
	return cfg
}

var userColumns = []string{"id", "username", "password", "email", "currency", "created_at", "updated_at"}

func TestAuthHandler_Register(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	// 用户名、邮箱均未占用
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("newuser").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows([]string{}))

	// 同一事务内创建用户和默认类别
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	for i, item := range models.GetDefaultCategories() {
		mock.ExpectQuery("SELECT .* FROM `categories`").
			WithArgs(1, item.Name, item.Type).
			WillReturnRows(sqlmock.NewRows([]string{}))
		mock.ExpectExec("INSERT INTO `categories`").
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	body := `{"username":"newuser","password":"password123","email":"test@example.com"}`
	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "注册成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	userInfo := data["user_info"].(map[string]interface{})
	assert.Equal(t, "USD", userInfo["currency"])
	assert.NotContains(t, userInfo, "password")

	// 返回的 token 可直接用于后续请求
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	claims, err := middleware.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "newuser", claims.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_UsernameExists(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("existinguser").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "existinguser", "hash", "e@x.com", "USD", time.Now(), time.Now()))

	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	body := `{"username":"existinguser","password":"password123","email":"new@x.com"}`
	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "用户名已存在", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_InvalidEmail(t *testing.T) {
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	body := `{"username":"newuser","password":"password123","email":"not-an-email"}`
	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("loginuser", "loginuser").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "loginuser", string(hashed), "login@x.com", "USD", time.Now(), time.Now()))

	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	body := `{"username":"loginuser","password":"password123"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := middleware.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("loginuser", "loginuser").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "loginuser", string(hashed), "login@x.com", "USD", time.Now(), time.Now()))

	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	body := `{"username":"loginuser","password":"wrong-password"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_UserNotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("nouser", "nouser").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	body := `{"username":"nouser","password":"any"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_GetProfile(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "alice", "hash", "alice@x.com", "CNY", time.Now(), time.Now()))

	router := gin.New()
	router.Use(setUserIDMiddleware(7))
	router.GET("/profile", NewAuthHandler(cfg).GetProfile)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/profile", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "CNY")
	assert.NotContains(t, w.Body.String(), "hash")
	require.NoError(t, mock.ExpectationsWereMet())
}
