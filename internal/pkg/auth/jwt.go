// Package auth issues and validates the JWT tokens used by both the HTTP API
// and the WebSocket handshake. A token identifies one actor: a customer, a
// business, or an agent.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

const issuer = "dispatch"

// ErrInvalidToken is returned for tokens that fail signature, expiry, or
// claims validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the actor identity inside a signed token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // customer | business | agent
	jwt.RegisteredClaims
}

// JWTService signs and verifies tokens with a shared HS256 secret.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// GenerateToken creates a signed token for the given actor.
func (s *JWTService) GenerateToken(userID kernel.UUID, role order.Role) (string, error) {
	if err := role.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the signature and standard claims and returns the
// embedded actor identity.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Actor converts validated claims into a domain actor.
func (s *JWTService) Actor(claims *Claims) (order.Actor, error) {
	id, err := kernel.UUIDFromString(claims.UserID)
	if err != nil {
		return order.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	role, err := order.ParseRole(claims.Role)
	if err != nil {
		return order.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return order.NewActor(id, role)
}
