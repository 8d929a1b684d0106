// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and account management.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/dbx"
	"github.com/dmitrijs2005/gallery/internal/logging"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/dmitrijs2005/gallery/internal/server/metrics"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/dmitrijs2005/gallery/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallery/internal/server/repositories/users"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token *auth.SessionToken
	User  models.User
}

// UserService provides authentication-related operations:
//   - Register: hash the password and create the user
//   - Login: verify credentials and mint a session token
//   - GetUser / ListUsers / UpdateUser / DeleteUser: account management
//
// Returned users never carry a password hash.
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenService
	metrics     *metrics.Auth
	logger      logging.Logger
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	tokens *auth.TokenService, am *metrics.Auth, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		metrics:     am,
		logger:      logger,
	}
}

func (s *UserService) users() users.Repository {
	return s.repomanager.Users(s.db)
}

// Register creates a user. Uniqueness is enforced by the store's atomic
// create; a taken name yields common.ErrDuplicateUserName.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	u, err := s.register(ctx, userName, password)
	s.metrics.Registration(outcome(err))
	return u, err
}

func (s *UserService) register(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, fmt.Errorf("%w: user name and password are required", common.ErrValidation)
	}

	hash, err := s.hash(ctx, password)
	if err != nil {
		return nil, err
	}

	u, err := s.users().Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return public(u), nil
}

// Login checks the credentials and issues a session token. An unknown user
// and a wrong password both return common.ErrInvalidCredentials after the
// same amount of hashing work.
func (s *UserService) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	res, err := s.login(ctx, userName, password)
	s.metrics.Login(outcome(err))
	return res, err
}

func (s *UserService) login(ctx context.Context, userName, password string) (*LoginResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.users().GetUserByLogin(ctx, userName)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		if _, verr := s.verify(ctx, password, s.hasher.Dummy()); verr != nil {
			return nil, verr
		}
		s.logger.Debug(ctx, "login rejected", "reason", "unknown_user")
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug(ctx, "login rejected", "reason", "password_mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, UserName: user.UserName})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &LoginResult{Token: token, User: *public(user)}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return public(u), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	list, err := s.users().List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}

// UpdateUser changes the name and/or password of user id. Empty values are
// ignored; if nothing is left to change common.ErrValidation is returned.
// Only the owner may update an account.
func (s *UserService) UpdateUser(ctx context.Context, caller *auth.Identity, id, userName, password string) (*models.User, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}

	var upd models.UserUpdate
	if name := strings.TrimSpace(userName); name != "" {
		upd.UserName = &name
	}
	if password != "" {
		hash, err := s.hash(ctx, password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}
	if upd.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}

	repo := s.users()
	var err error
	if upd.UserName == nil {
		err = repo.UpdateCredential(ctx, id, *upd.PasswordHash)
	} else {
		err = repo.Update(ctx, id, upd)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user updated", "user_id", id,
		"name_changed", upd.UserName != nil, "password_changed", upd.PasswordHash != nil)
	return s.GetUser(ctx, id)
}

// DeleteUser removes user id. Only the owner may delete an account.
func (s *UserService) DeleteUser(ctx context.Context, caller *auth.Identity, id string) error {
	if err := authorize(caller, id); err != nil {
		return err
	}
	if err := s.users().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// Ping reports whether the user store is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	return s.users().Ping(ctx)
}

func (s *UserService) hash(ctx context.Context, password string) (string, error) {
	defer s.metrics.ObserveHash("hash", time.Now())
	return s.hasher.Hash(ctx, password)
}

func (s *UserService) verify(ctx context.Context, password, hash string) (bool, error) {
	defer s.metrics.ObserveHash("verify", time.Now())
	return s.hasher.Verify(ctx, password, hash)
}

func authorize(caller *auth.Identity, id string) error {
	if caller == nil || caller.UserID != id {
		return common.ErrForbidden
	}
	return nil
}

func public(u *models.User) *models.User {
	p := *u
	p.PasswordHash = ""
	return &p
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrDuplicateUserName):
		return metrics.OutcomeDuplicate
	case errors.Is(err, common.ErrInvalidCredentials):
		return metrics.OutcomeInvalid
	case errors.Is(err, common.ErrValidation):
		return metrics.OutcomeBadRequest
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, common.ErrHashingFailure):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
