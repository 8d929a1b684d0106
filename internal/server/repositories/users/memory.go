package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. The uniqueness check and
// the insert run under one lock, so it gives the same guarantee as the
// PostgreSQL unique index within a single process. Meant for development and
// tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*models.User),
		byName: make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[user.UserName]; taken {
		return nil, common.ErrDuplicateUserName
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byName[user.UserName] = user.ID

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *stored
	return &u, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.User, 0, len(r.byID))
	for _, stored := range r.byID {
		u := *stored
		u.PasswordHash = ""
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserName < result[j].UserName })

	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if upd.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}

	if upd.UserName != nil && *upd.UserName != stored.UserName {
		if _, taken := r.byName[*upd.UserName]; taken {
			return common.ErrDuplicateUserName
		}
		delete(r.byName, stored.UserName)
		r.byName[*upd.UserName] = id
		stored.UserName = *upd.UserName
	}
	if upd.PasswordHash != nil {
		stored.PasswordHash = *upd.PasswordHash
	}
	stored.UpdatedAt = r.now()

	return nil
}

func (r *MemoryRepository) UpdateCredential(ctx context.Context, id string, passwordHash string) error {
	return r.Update(ctx, id, models.UserUpdate{PasswordHash: &passwordHash})
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byName, stored.UserName)
	delete(r.byID, id)

	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}
