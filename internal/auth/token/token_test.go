package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/auth/token"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

type TokenSuite struct {
	suite.Suite
	service *token.Service
	actor   domain.Actor
}

func (s *TokenSuite) SetupTest() {
	s.service = token.NewService("test-signing-key", "maternidad-test")
	s.actor = domain.Actor{
		ID:   domain.UserID(uuid.New()),
		Name: "Dra. Contreras",
		Role: domain.RoleDoctor,
	}
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) TestRoundTrip() {
	signed, err := s.service.GenerateAccessToken(s.actor, time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(signed)

	actor, jti, err := s.service.ValidateToken(signed)
	s.Require().NoError(err)
	s.Equal(s.actor.ID, actor.ID)
	s.Equal(s.actor.Name, actor.Name)
	s.Equal(s.actor.Role, actor.Role)
	s.NotEmpty(jti)
}

func (s *TokenSuite) TestDistinctJTIs() {
	first, err := s.service.GenerateAccessToken(s.actor, time.Hour)
	s.Require().NoError(err)
	second, err := s.service.GenerateAccessToken(s.actor, time.Hour)
	s.Require().NoError(err)

	_, firstJTI, err := s.service.ValidateToken(first)
	s.Require().NoError(err)
	_, secondJTI, err := s.service.ValidateToken(second)
	s.Require().NoError(err)
	s.NotEqual(firstJTI, secondJTI)
}

func (s *TokenSuite) TestWrongKey() {
	signed, err := s.service.GenerateAccessToken(s.actor, time.Hour)
	s.Require().NoError(err)

	other := token.NewService("another-key", "maternidad-test")
	_, _, err = other.ValidateToken(signed)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestExpired() {
	signed, err := s.service.GenerateAccessToken(s.actor, -time.Minute)
	s.Require().NoError(err)

	_, _, err = s.service.ValidateToken(signed)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "expired")
}

func (s *TokenSuite) TestGarbage() {
	_, _, err := s.service.ValidateToken("not-a-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
