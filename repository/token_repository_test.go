// repository/token_repository_test.go
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

func TestTokenRepository_SaveUpserts(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	expiresAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	dbMock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(int64(42), "signed-token", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(&model.RefreshToken{MemberID: 42, Token: "signed-token", ExpiresAt: expiresAt})
	assert.NoError(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_Find(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	expiresAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"member_id", "token", "expires_at"}).
			AddRow(int64(42), "signed-token", expiresAt)
		dbMock.ExpectQuery(regexp.QuoteMeta("SELECT member_id, token, expires_at FROM refresh_tokens")).
			WithArgs(int64(42)).
			WillReturnRows(rows)

		record, err := repo.Find(42)
		assert.NoError(t, err)
		assert.Equal(t, "signed-token", record.Token)
		assert.Equal(t, int64(42), record.MemberID)
	})

	t.Run("not found", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta("SELECT member_id, token, expires_at FROM refresh_tokens")).
			WithArgs(int64(7)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(7)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteIfMatches(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	t.Run("row matched and deleted", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE member_id = $1 AND token = $2")).
			WithArgs(int64(42), "old-token").
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := repo.DeleteIfMatches(42, "old-token")
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("already rotated away", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE member_id = $1 AND token = $2")).
			WithArgs(int64(42), "old-token").
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repo.DeleteIfMatches(42, "old-token")
		assert.NoError(t, err)
		assert.False(t, deleted)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 5))
	dbMock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteExpired(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	// Idempotent: nothing newly expired, nothing deleted.
	deleted, err = repo.DeleteExpired(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
