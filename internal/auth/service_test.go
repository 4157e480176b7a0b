package auth

import (
	"fmt"
	"testing"

	"github.com/chirpsocial/backend/internal/database"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupSuite initializes test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(suite.T(), err)

	// A second pool connection to :memory: would see an empty database
	sqlDB, err := db.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	// Create the users table manually with SQLite-compatible syntax
	// (AutoMigrate would carry the PostgreSQL gen_random_uuid default)
	err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			bio TEXT,
			location TEXT,
			password_hash TEXT,
			avatar_url TEXT,
			follower_count INTEGER DEFAULT 0,
			following_count INTEGER DEFAULT 0,
			post_count INTEGER DEFAULT 0,
			last_active_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)
	`).Error
	require.NoError(suite.T(), err)

	// Set global DB for database package
	database.DB = db

	suite.db = db
	suite.authService = NewService([]byte("test_jwt_secret_key"))
}

// TearDownSuite cleans up after tests
func (suite *AuthServiceTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

// SetupTest cleans database before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM users")
}

// TestRegister tests user registration
func (suite *AuthServiceTestSuite) TestRegister() {
	t := suite.T()

	req := RegisterRequest{
		Email:       "test@chirp.social",
		Username:    "testbird",
		Password:    "password123",
		DisplayName: "Test Bird",
	}

	authResp, err := suite.authService.Register(req)
	require.NoError(t, err)
	require.NotNil(t, authResp)

	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, req.Email, authResp.User.Email)
	assert.Equal(t, req.Username, authResp.User.Username)
	assert.Equal(t, req.DisplayName, authResp.User.DisplayName)
	assert.NotNil(t, authResp.User.PasswordHash)

	// Duplicate email
	_, err = suite.authService.Register(req)
	assert.ErrorIs(t, err, ErrUserExists)

	// Duplicate username under a different email
	req2 := RegisterRequest{
		Email:       "different@chirp.social",
		Username:    "testbird",
		Password:    "password456",
		DisplayName: "Different Bird",
	}
	_, err = suite.authService.Register(req2)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

// TestLogin tests user login
func (suite *AuthServiceTestSuite) TestLogin() {
	t := suite.T()

	registerReq := RegisterRequest{
		Email:       "login@chirp.social",
		Username:    "logintest",
		Password:    "testpass123",
		DisplayName: "Login Test",
	}
	_, err := suite.authService.Register(registerReq)
	require.NoError(t, err)

	loginReq := LoginRequest{
		Email:    "login@chirp.social",
		Password: "testpass123",
	}

	authResp, err := suite.authService.Login(loginReq)
	require.NoError(t, err)
	require.NotNil(t, authResp)

	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, loginReq.Email, authResp.User.Email)
	assert.NotNil(t, authResp.User.LastActiveAt)

	// Unknown email
	loginReq.Email = "nonexistent@chirp.social"
	_, err = suite.authService.Login(loginReq)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Wrong password
	loginReq.Email = "login@chirp.social"
	loginReq.Password = "wrongpassword"
	_, err = suite.authService.Login(loginReq)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Email match is case-insensitive
	loginReq.Email = "LOGIN@CHIRP.SOCIAL"
	loginReq.Password = "testpass123"
	_, err = suite.authService.Login(loginReq)
	assert.NoError(t, err)
}

// TestJWTTokenValidation tests JWT token generation and validation
func (suite *AuthServiceTestSuite) TestJWTTokenValidation() {
	t := suite.T()

	user := models.User{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		Email:       "jwt@chirp.social",
		Username:    "jwttest",
		DisplayName: "JWT Test",
	}
	require.NoError(t, suite.db.Create(&user).Error)

	authResp, err := suite.authService.generateAuthResponse(&user)
	require.NoError(t, err)

	validatedUser, err := suite.authService.ValidateToken(authResp.Token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, validatedUser.ID)
	assert.Equal(t, user.Email, validatedUser.Email)
	assert.Equal(t, user.Username, validatedUser.Username)

	// Garbage token
	_, err = suite.authService.ValidateToken("invalid.jwt.token")
	assert.Error(t, err)

	// Token signed with a different secret
	wrongService := NewService([]byte("wrong_secret"))
	_, err = wrongService.ValidateToken(authResp.Token)
	assert.Error(t, err)
}

// TestConcurrentRegistration tests concurrent user registration
func (suite *AuthServiceTestSuite) TestConcurrentRegistration() {
	t := suite.T()

	const numGoroutines = 10
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(index int) {
			req := RegisterRequest{
				Email:       fmt.Sprintf("concurrent%d@chirp.social", index),
				Username:    fmt.Sprintf("concurrent%d", index),
				Password:    "password123",
				DisplayName: fmt.Sprintf("Concurrent User %d", index),
			}
			_, err := suite.authService.Register(req)
			results <- err
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		err := <-results
		assert.NoError(t, err, "Concurrent registration %d failed", i)
	}

	var userCount int64
	suite.db.Model(&models.User{}).Where("email LIKE 'concurrent%@chirp.social'").Count(&userCount)
	assert.Equal(t, int64(numGoroutines), userCount)
}

// Run the test suite
func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
