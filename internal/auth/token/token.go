// Package token issues and validates the access tokens the external identity
// layer hands to ward staff. The core only needs the actor identity (id,
// display name, role) and the jti for logout revocation.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

// Claims carries the actor identity inside the JWT.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"rol"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateAccessToken signs a token for the given actor.
func (s *Service) GenerateAccessToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: actor.Name,
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the actor it encodes
// and the token's jti.
func (s *Service) ValidateToken(tokenString string) (domain.Actor, string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Actor{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return domain.Actor{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	actor := domain.Actor{
		ID:   userID,
		Name: claims.Name,
		Role: domain.Role(claims.Role),
	}
	return actor, claims.ID, nil
}
