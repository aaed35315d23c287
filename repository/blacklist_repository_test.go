// repository/blacklist_repository_test.go
package repository

import (
	"database/sql"
	"go-habit-auth/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestBlacklistRepository_Add(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewBlacklistRepository(db)
	expiresAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	dbMock.ExpectExec(regexp.QuoteMeta("INSERT INTO blacklisted_tokens")).
		WithArgs("abc123", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Add(&model.BlacklistedToken{TokenHash: "abc123", ExpiresAt: expiresAt})
	assert.NoError(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestBlacklistRepository_Contains(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewBlacklistRepository(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("live entry", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(10 * time.Minute))
		dbMock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM blacklisted_tokens")).
			WithArgs("abc123").
			WillReturnRows(rows)

		revoked, err := repo.Contains("abc123", now)
		assert.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired entry is lazily deleted", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(-time.Minute))
		dbMock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM blacklisted_tokens")).
			WithArgs("abc123").
			WillReturnRows(rows)
		dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM blacklisted_tokens WHERE token_hash = $1")).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		revoked, err := repo.Contains("abc123", now)
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("absent entry", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM blacklisted_tokens")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		revoked, err := repo.Contains("missing", now)
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestBlacklistRepository_DeleteExpired(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewBlacklistRepository(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM blacklisted_tokens WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
