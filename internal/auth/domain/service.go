package domain

import (
	"context"
)

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*Token, error)
	// Authenticate resolves the user behind a bearer token.
	Authenticate(ctx context.Context, rawToken string) (*User, error)
}

type SignupRequest struct {
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}
