package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessExp = "1h"
	testSecret    = "test-secret-key-for-jwt"
)

// usersByEmail is the only lookup the auth service needs.
type usersByEmail struct {
	user.UserRepository
	users map[string]user.User
}

func (u usersByEmail) GetByEmail(ctx context.Context, email string) (user.User, error) {
	found, ok := u.users[strings.ToLower(email)]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return found, nil
}

func newTestAuthService(t *testing.T) (auth.AuthService, jwt.Service) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := usersByEmail{users: map[string]user.User{
		"login@example.com": {
			ID:           "0190a4b2-7c3e-7d41-9a2b-3c4d5e6f7a8b",
			Email:        "login@example.com",
			PasswordHash: string(hash),
			UserType:     user.UserTypeEmployee,
		},
	}}
	jwtService := jwt.NewJWTService(testSecret, testAccessExp)
	return NewAuthService(repo, jwtService), jwtService
}

// Test Login with valid credentials
func TestAuthService_Login_Success(t *testing.T) {
	// Setup
	authService, jwtService := newTestAuthService(t)

	// Act
	response, err := authService.Login(context.Background(), auth.LoginRequest{Email: " Login@Example.com ", Password: "password123"})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.Greater(t, response.AccessTokenExpiresIn, int64(0))
	assert.Equal(t, "employee", response.UserType)

	token, err := jwtService.JWTAuth().Decode(response.AccessToken)
	require.NoError(t, err)
	userType, _ := token.Get("user_type")
	assert.Equal(t, "employee", userType)
}

// Test Login with invalid password
func TestAuthService_Login_InvalidPassword(t *testing.T) {
	authService, _ := newTestAuthService(t)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Email: "login@example.com", Password: "wrong-password"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// Test Login with unknown email
func TestAuthService_Login_UnknownEmail(t *testing.T) {
	authService, _ := newTestAuthService(t)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Email: "nobody@example.com", Password: "password123"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_Validation(t *testing.T) {
	authService, _ := newTestAuthService(t)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Email: "not-an-email"})

	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "email")
	assert.Contains(t, errs.ToMap(), "password")
}

func TestAuthService_Logout(t *testing.T) {
	authService, jwtService := newTestAuthService(t)
	ctx := context.Background()

	response, err := authService.Login(ctx, auth.LoginRequest{Email: "login@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, response.AccessToken))
	assert.True(t, jwtService.IsTokenRevoked(response.AccessToken))

	assert.ErrorIs(t, authService.Logout(ctx, response.AccessToken), auth.ErrTokenRevoked)
	assert.ErrorIs(t, authService.Logout(ctx, ""), auth.ErrInvalidToken)
}
