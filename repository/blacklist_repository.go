// file: repository/blacklist_repository.go

package repository

import (
	"database/sql"
	"go-habit-auth/logger"
	"go-habit-auth/model"
	"time"

	"github.com/sirupsen/logrus"
)

// IBlacklistRepository defines the contract for revoked access token storage.
type IBlacklistRepository interface {
	Add(entry *model.BlacklistedToken) error
	Contains(tokenHash string, now time.Time) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

// BlacklistRepository implements IBlacklistRepository.
type BlacklistRepository struct {
	DB *sql.DB
}

// NewBlacklistRepository creates a new BlacklistRepository.
func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{DB: db}
}

// Add inserts a revoked token hash. The entry expiry mirrors the revoked
// token's own expiry, so the row never needs to outlive the token.
func (r *BlacklistRepository) Add(entry *model.BlacklistedToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"token_hash": entry.TokenHash,
		"expires_at": entry.ExpiresAt,
	})
	log.Info("Executing query to blacklist access token")

	query := `INSERT INTO blacklisted_tokens (token_hash, expires_at) VALUES ($1, $2)
	          ON CONFLICT (token_hash) DO NOTHING`
	_, err := r.DB.Exec(query, entry.TokenHash, entry.ExpiresAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute blacklist insert query")
		return err
	}
	return nil
}

// Contains reports whether the hash belongs to a still-live revocation.
// A row whose expiry has already passed is deleted lazily and treated as
// absent, so expired revocations do not linger until the next sweep.
func (r *BlacklistRepository) Contains(tokenHash string, now time.Time) (bool, error) {
	var expiresAt time.Time
	query := `SELECT expires_at FROM blacklisted_tokens WHERE token_hash = $1`
	err := r.DB.QueryRow(query, tokenHash).Scan(&expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Log.WithError(err).Error("Failed to execute blacklist lookup query")
		return false, err
	}

	if !expiresAt.After(now) {
		if _, err := r.DB.Exec(`DELETE FROM blacklisted_tokens WHERE token_hash = $1`, tokenHash); err != nil {
			// The row is expired either way; the sweep will retry the delete.
			logger.Log.WithError(err).Warn("Failed to lazily delete expired blacklist entry")
		}
		return false, nil
	}
	return true, nil
}

// DeleteExpired bulk-deletes all entries whose expiry is strictly before now
// and returns the number of rows removed.
func (r *BlacklistRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at < $1`
	result, err := r.DB.Exec(query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired blacklist entries query")
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to read affected rows of blacklist sweep")
		return 0, err
	}
	return affected, nil
}
