package jwt

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess       = "access"
	TokenTypeAttendanceQR = "attendance_qr"
)

type Service interface {
	GenerateAccessToken(userID string, email string, userType user.UserType) (token string, expiresAt int64, err error)
	GenerateAttendanceQRToken(day time.Time, validUntil time.Time) (token string, err error)
	ValidateAttendanceQRToken(tokenString string, day time.Time) error
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revokedTokens             map[string]int64
	mu                        sync.RWMutex
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:             make(map[string]int64),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, email string, userType user.UserType) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":   userID,
		"email":     email,
		"user_type": string(userType),
		"type":      TokenTypeAccess,
		"exp":       expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateAttendanceQRToken issues the token encoded in the daily check-in QR code.
func (j *JWTService) GenerateAttendanceQRToken(day time.Time, validUntil time.Time) (string, error) {
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"type": TokenTypeAttendanceQR,
		"day":  day.Format("2006-01-02"),
		"exp":  validUntil.Unix(),
	})
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ValidateAttendanceQRToken checks signature, expiry and that the token was issued for day.
func (j *JWTService) ValidateAttendanceQRToken(tokenString string, day time.Time) error {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeAttendanceQR {
		return jwt.ErrInvalidJWT()
	}

	tokenDay, ok := token.Get("day")
	if !ok || tokenDay != day.Format("2006-01-02") {
		return jwt.ErrInvalidJWT()
	}

	return nil
}

func (j *JWTService) RevokeToken(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = time.Now().Unix()
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}
