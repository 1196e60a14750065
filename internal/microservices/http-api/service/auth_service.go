package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"schooladmin/internal/config"
)

const RoleAdmin = "admin"

// Scopes gating the routes that change state. Reads only need the admin role.
const (
	ScopeNotificationsWrite = "notifications:write"
	ScopeConsultationsWrite = "consultations:write"
)

// DefaultAdminScopes is what operator tokens get unless narrowed.
var DefaultAdminScopes = []string{"notifications:*", "consultations:*"}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by dashboard access tokens.
type Claims struct {
	Role   string   `json:"role"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	IssueAccessToken(subject, role string, scopes []string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	jwtSecret      string
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		now:            time.Now,
	}
}

// IssueAccessToken signs an HS256 token for an operator of the dashboard.
func (s *authService) IssueAccessToken(subject, role string, scopes []string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := s.now()
	claims := Claims{
		Role:   role,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
