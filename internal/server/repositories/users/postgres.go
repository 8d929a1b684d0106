package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/dbx"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// readBackoff is the retry policy for idempotent reads. Writes are never
// retried. Replaced in tests.
var readBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and fills in the generated id and timestamps.
// Uniqueness is enforced by the users_username_key constraint, so two
// concurrent inserts of the same name cannot both succeed.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, user.UserName, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, created_at, updated_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.read(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, userName).
			Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	})
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, username, password_hash, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.read(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, id).
			Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	})
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

// List returns all users ordered by name. PasswordHash is left empty.
func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query :=
		`SELECT id, username, created_at, updated_at FROM users
		 ORDER BY username
		 `

	var result []models.User
	err := r.read(ctx, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.UserName, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return err
			}
			result = append(result, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError(err)
	}

	return result, nil
}

// Update builds a single UPDATE statement from the non-nil fields of upd.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if upd.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}
	if !validID(id) {
		return common.ErrorNotFound
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if upd.UserName != nil {
		args = append(args, *upd.UserName)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if upd.PasswordHash != nil {
		args = append(args, *upd.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) UpdateCredential(ctx context.Context, id string, passwordHash string) error {
	return r.Update(ctx, id, models.UserUpdate{PasswordHash: &passwordHash})
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *PostgresRepository) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, readBackoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError converts driver errors into the store error taxonomy.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return common.ErrDuplicateUserName
	}

	return fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsOperatorIntervention(pgErr.Code)
	}

	return pgconn.SafeToRetry(err)
}
