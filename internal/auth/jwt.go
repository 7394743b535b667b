package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenManager issues and validates HS256 access tokens for staff accounts
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager creates a token manager from auth configuration
func NewTokenManager(cfg *config.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL(),
		issuer: cfg.Issuer,
	}, nil
}

type staffClaims struct {
	StaffID     string `json:"sid"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed access token for a staff member
func (m *TokenManager) IssueToken(staff *domain.Staff) (string, error) {
	now := time.Now()
	claims := staffClaims{
		StaffID:     staff.ID.String(),
		DisplayName: staff.DisplayName,
		Email:       staff.Email,
		Role:        string(staff.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   staff.AuthID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and returns the staff context it encodes
func (m *TokenManager) ValidateToken(tokenString string) (*StaffContext, error) {
	claims := &staffClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	staffID, err := uuid.Parse(claims.StaffID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad staff id claim", ErrInvalidToken)
	}

	role := domain.StaffRole(claims.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role claim %q", ErrInvalidToken, claims.Role)
	}

	return &StaffContext{
		StaffID:     staffID,
		AuthID:      claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Role:        role,
	}, nil
}
