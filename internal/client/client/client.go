package client

import (
	"context"

	"github.com/dmitrijs2005/gallery/internal/api"
)

type Client interface {
	Register(ctx context.Context, userName string, password []byte) (string, error)
	Login(ctx context.Context, userName string, password []byte) (*api.LoginResponse, error)
	Logout()
	Me(ctx context.Context) (*api.Identity, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	Ping(ctx context.Context) error
}
