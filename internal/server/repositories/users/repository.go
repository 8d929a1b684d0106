// Package users implements the credential store: the single source of truth
// for the user name -> password hash mapping.
package users

import (
	"context"

	"github.com/dmitrijs2005/gallery/internal/server/models"
)

// Repository persists users. Implementations must make Create atomic with
// the user name uniqueness check and report a conflict as
// common.ErrDuplicateUserName. Lookups, updates and deletes of a missing user
// return common.ErrorNotFound; transport failures wrap
// common.ErrStoreUnavailable.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	UpdateCredential(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
