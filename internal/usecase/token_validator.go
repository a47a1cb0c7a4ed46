package usecase

import (
	"todo-notifier/internal/pkg/jwt"
)

type ServiceIdentity struct {
	Subject string
	Scopes  []string
}

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (*ServiceIdentity, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (*ServiceIdentity, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &ServiceIdentity{Subject: claims.Subject, Scopes: claims.Scopes}, nil
}
