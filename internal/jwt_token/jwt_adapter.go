package jwttoken

import (
	"trustbase/internal/platform/middleware"
)

// MiddlewareAdapter adapts JWTService to the middleware.JWTValidator
// interface so the transport layer stays decoupled from the concrete
// token implementation.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
	}, nil
}
