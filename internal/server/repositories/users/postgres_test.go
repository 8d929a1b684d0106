package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c2f0e-4a43-4d7e-9b8a-2b6a1f0c9d11"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func fastRetries(t *testing.T, n uint64) {
	t.Helper()
	orig := readBackoff
	readBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(n, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { readBackoff = orig })
}

var (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	byNameQuery = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	byIDQuery   = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	listQuery   = `(?s)^SELECT\s+id,\s*username,\s*created_at,\s*updated_at\s+FROM\s+users\s+ORDER\s+BY\s+username\s*$`
)

func userRow(id, name, hash string, ts time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
		AddRow(id, name, hash, ts, ts)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "$2a$12$hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(testUserID, ts, ts))

	got, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "$2a$12$hash"})
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, ts, got.CreatedAt)
}

func TestCreate_DuplicateUserName(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "h").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrDuplicateUserName)
}

func TestCreate_NotRetried(t *testing.T) {
	fastRetries(t, 3)
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "h").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "h").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(byNameQuery).
		WithArgs("alice").
		WillReturnRows(userRow(testUserID, "alice", "h", ts))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byNameQuery).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByLogin_RetriesTransientFailure(t *testing.T) {
	fastRetries(t, 3)
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byNameQuery).
		WithArgs("alice").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
	mock.ExpectQuery(byNameQuery).
		WithArgs("alice").
		WillReturnRows(userRow(testUserID, "alice", "h", time.Now()))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
}

func TestGetUserByLogin_RetriesExhausted(t *testing.T) {
	fastRetries(t, 1)
	repo, mock := newRepoWithMock(t)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(byNameQuery).
			WithArgs("alice").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.AdminShutdown})
	}

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byIDQuery).
		WithArgs(testUserID).
		WillReturnRows(userRow(testUserID, "bob", "h", time.Now()))

	got, err := repo.GetByID(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UserName)
}

func TestGetByID_MalformedIDIsNotFound(t *testing.T) {
	repo, _ := newRepoWithMock(t)

	_, err := repo.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "updated_at"}).
			AddRow(testUserID, "alice", ts, ts).
			AddRow("0b9e7c55-1d1f-4f7e-8c7a-5e2f7c9d0a01", "bob", ts, ts))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].UserName)
	assert.Empty(t, got[0].PasswordHash)
	assert.Equal(t, "bob", got[1].UserName)
}

func TestUpdate_BuildsStatementFromSetFields(t *testing.T) {
	name := "alice2"
	hash := "h2"

	tests := []struct {
		name  string
		upd   models.UserUpdate
		query string
		args  []driver.Value
	}{
		{
			name:  "name only",
			upd:   models.UserUpdate{UserName: &name},
			query: `UPDATE users SET username = $1, updated_at = now() WHERE id = $2`,
			args:  []driver.Value{name, testUserID},
		},
		{
			name:  "hash only",
			upd:   models.UserUpdate{PasswordHash: &hash},
			query: `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
			args:  []driver.Value{hash, testUserID},
		},
		{
			name:  "both",
			upd:   models.UserUpdate{UserName: &name, PasswordHash: &hash},
			query: `UPDATE users SET username = $1, password_hash = $2, updated_at = now() WHERE id = $3`,
			args:  []driver.Value{name, hash, testUserID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectExec("^" + regexp.QuoteMeta(tt.query) + "$").
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.Update(context.Background(), testUserID, tt.upd))
		})
	}
}

func TestUpdate_Errors(t *testing.T) {
	name := "taken"

	t.Run("empty update", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		err := repo.Update(context.Background(), testUserID, models.UserUpdate{})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`^UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.Update(context.Background(), testUserID, models.UserUpdate{UserName: &name})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("rename into taken name", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`^UPDATE users SET`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		err := repo.Update(context.Background(), testUserID, models.UserUpdate{UserName: &name})
		assert.ErrorIs(t, err, common.ErrDuplicateUserName)
	})
}

func TestUpdateCredential(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("^"+regexp.QuoteMeta(`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`)+"$").
		WithArgs("new-hash", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCredential(context.Background(), testUserID, "new-hash"))
}

func TestDelete(t *testing.T) {
	q := `^DELETE FROM users WHERE id = \$1$`

	t.Run("deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), testUserID))
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), testUserID), common.ErrorNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), common.ErrorNotFound)
	})
}

func TestPing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT 1$`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	assert.NoError(t, repo.Ping(context.Background()))
}
