package ports

import "context"

type AuthRepo interface {
	GetPasswordHash(ctx context.Context) (string, error)
}

type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}
