package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"table_order_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// RoleAdmin is the only role issued; admin and kitchen staff share it.
const RoleAdmin = "admin"

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(req LoginRequest) (*AuthResponse, error)
	CheckCredentials(username, password string) bool
	ValidateToken(token string) (*utils.Claims, error)
}

// --- authService Implementation ---
type authService struct {
	username      string
	passwordHash  []byte
	jwtSecret     []byte
	jwtExpiration time.Duration
}

// NewAuthService hashes the configured admin password once at startup.
func NewAuthService(username, password, jwtSecret string, jwtExp time.Duration) (AuthService, error) {
	if username == "" || password == "" {
		return nil, errors.New("admin username and password must be configured")
	}
	if jwtSecret == "" {
		return nil, errors.New("jwt secret must be configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &authService{
		username:      username,
		passwordHash:  hash,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExp,
	}, nil
}

// CheckCredentials compares against the configured admin account.
func (s *authService) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// Login handles the business logic for admin login.
func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	if !s.CheckCredentials(req.Username, req.Password) {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := utils.GenerateAccessToken(s.jwtSecret, s.jwtExpiration, req.Username, RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	utils.LogInfo("Admin logged in", map[string]interface{}{"username": req.Username})
	return &AuthResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

func (s *authService) ValidateToken(token string) (*utils.Claims, error) {
	claims, err := utils.ValidateToken(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("role '%s' is not allowed", claims.Role)
	}
	return claims, nil
}
