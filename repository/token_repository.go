// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"go-habit-auth/logger"
	"go-habit-auth/model"
	"time"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Save(token *model.RefreshToken) error
	Find(memberID int64) (*model.RefreshToken, error)
	Delete(memberID int64) error
	DeleteIfMatches(memberID int64, token string) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Save upserts the refresh token record for a member. The member id is the
// primary key, so any previous session for that member is overwritten and
// at most one refresh token per member can exist.
func (r *TokenRepository) Save(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"member_id":  token.MemberID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to save refresh token")

	query := `INSERT INTO refresh_tokens (member_id, token, expires_at) VALUES ($1, $2, $3)
	          ON CONFLICT (member_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`
	_, err := r.DB.Exec(query, token.MemberID, token.Token, token.ExpiresAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute save refresh token query")
		return err
	}
	return nil
}

// Find retrieves the refresh token record for a member.
func (r *TokenRepository) Find(memberID int64) (*model.RefreshToken, error) {
	log := logger.Log.WithField("member_id", memberID)
	log.Info("Executing query to find refresh token")

	token := &model.RefreshToken{}
	query := `SELECT member_id, token, expires_at FROM refresh_tokens WHERE member_id = $1`
	err := r.DB.QueryRow(query, memberID).Scan(&token.MemberID, &token.Token, &token.ExpiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute find refresh token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// Delete removes the refresh token record for a member, if any.
func (r *TokenRepository) Delete(memberID int64) error {
	log := logger.Log.WithField("member_id", memberID)
	log.Info("Executing query to delete refresh token")

	query := `DELETE FROM refresh_tokens WHERE member_id = $1`
	_, err := r.DB.Exec(query, memberID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh token query")
		return err
	}
	return nil
}

// DeleteIfMatches removes the member's record only if the stored token value
// equals the presented one, reporting whether a row was deleted. The row-level
// atomicity of the conditional DELETE is what makes rotation single-use under
// concurrent refresh calls: exactly one caller deletes the pre-rotation row.
func (r *TokenRepository) DeleteIfMatches(memberID int64, token string) (bool, error) {
	log := logger.Log.WithField("member_id", memberID)
	log.Info("Executing conditional delete of refresh token")

	query := `DELETE FROM refresh_tokens WHERE member_id = $1 AND token = $2`
	result, err := r.DB.Exec(query, memberID, token)
	if err != nil {
		log.WithError(err).Error("Failed to execute conditional delete query")
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read affected rows of conditional delete")
		return false, err
	}
	return affected > 0, nil
}

// DeleteExpired bulk-deletes all records whose expiry is strictly before now
// and returns the number of rows removed.
func (r *TokenRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`
	result, err := r.DB.Exec(query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired refresh tokens query")
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to read affected rows of expired sweep")
		return 0, err
	}
	return affected, nil
}
