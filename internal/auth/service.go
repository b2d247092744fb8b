package auth

import (
	"errors"
	"fmt"
	"time"

	"medcare-admin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens
	ErrInvalidToken = errors.New("invalid token")

	// ErrPasswordMismatch is returned when a password does not match its hash
	ErrPasswordMismatch = errors.New("password mismatch")
)

// Service issues and verifies bearer tokens and hashes passwords
type Service struct {
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService creates a new auth service
func NewService(secret string, ttl time.Duration, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// GenerateToken signs an HS256 token for the principal
func (s *Service) GenerateToken(p *model.Principal) (string, error) {
	now := s.now()
	claims := &model.JWTClaims{
		UserID: p.ID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the token and returns the principal it carries
func (s *Service) ValidateToken(tokenString string) (*model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.Principal{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

// HashPassword hashes a password with bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// ComparePassword checks a password against its bcrypt hash
func (s *Service) ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
