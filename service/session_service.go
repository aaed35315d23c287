// file: service/session_service.go

package service

import (
	"fmt"
	"go-habit-auth/common"
	"go-habit-auth/logger"
	"go-habit-auth/model"
	"go-habit-auth/repository"
	"time"
)

// TokenPair carries a freshly issued access/refresh pair. The access token
// goes out in the Authorization header, the refresh token in an HTTP-only
// cookie whose Max-Age matches RefreshExpiresAt.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionService orchestrates login, refresh rotation and logout on top of
// the codec, validator and both stores.
type SessionService struct {
	codec         *TokenCodec
	validator     *TokenValidator
	tokenRepo     repository.ITokenRepository
	blacklistRepo repository.IBlacklistRepository
	clock         common.Clock
}

// NewSessionService creates a new SessionService.
func NewSessionService(codec *TokenCodec, validator *TokenValidator, tokenRepo repository.ITokenRepository, blacklistRepo repository.IBlacklistRepository, clock common.Clock) *SessionService {
	return &SessionService{
		codec:         codec,
		validator:     validator,
		tokenRepo:     tokenRepo,
		blacklistRepo: blacklistRepo,
		clock:         clock,
	}
}

func (s *SessionService) issuePair(memberID int64, email, socialUID string) (*TokenPair, error) {
	accessToken, accessExp, err := s.codec.Issue(memberID, email, socialUID, model.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, refreshExp, err := s.codec.Issue(memberID, email, socialUID, model.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Login issues a fresh pair for the identity the social-login collaborator
// resolved and persists the refresh record. Saving is an upsert, so any prior
// session for the member is overwritten: at most one live session per member.
func (s *SessionService) Login(memberID int64, email, socialUID string) (*TokenPair, error) {
	pair, err := s.issuePair(memberID, email, socialUID)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{
		MemberID:  memberID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.tokenRepo.Save(record); err != nil {
		return nil, err
	}

	logger.Log.WithField("member_id", memberID).Info("Member logged in, refresh session stored")
	return pair, nil
}

// Refresh rotates the presented refresh token. The conditional delete of the
// old record is the single-winner step: of two concurrent calls presenting
// the same token, exactly one deletes the pre-rotation row and proceeds; the
// other fails like any replayed token. Every validation reason collapses to
// ErrInvalidRefreshToken so rotated, expired and revoked tokens are rejected
// with one external shape.
func (s *SessionService) Refresh(rawRefreshToken string) (*TokenPair, error) {
	claims, err := s.validator.ValidateRefresh(rawRefreshToken)
	if err != nil {
		if IsAuthFailure(err) {
			logger.Log.WithError(err).Warn("Refresh token rejected")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	rotated, err := s.tokenRepo.DeleteIfMatches(claims.MemberID, rawRefreshToken)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Lost the rotation race: another call already consumed this token.
		logger.Log.WithField("member_id", claims.MemberID).Warn("Refresh token already rotated")
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(claims.MemberID, claims.Email, claims.SocialUID)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{
		MemberID:  claims.MemberID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.tokenRepo.Save(record); err != nil {
		return nil, err
	}

	logger.Log.WithField("member_id", claims.MemberID).Info("Refresh token rotated")
	return pair, nil
}

// Logout resolves the member from whichever token is present, deletes the
// member's refresh record and, if a still-valid access token was presented,
// blacklists its hash until the token's own expiry.
func (s *SessionService) Logout(rawAccessToken, rawRefreshToken string) error {
	var memberID int64
	resolved := false

	if rawAccessToken != "" {
		claims, err := s.codec.Parse(rawAccessToken)
		if err == nil && s.codec.VerifyType(claims, model.TokenTypeAccess) {
			memberID = claims.MemberID
			resolved = true

			entry := &model.BlacklistedToken{
				TokenHash: HashToken(rawAccessToken),
				ExpiresAt: claims.ExpiresAt.Time,
			}
			if err := s.blacklistRepo.Add(entry); err != nil {
				return err
			}
		} else if err != nil {
			// An expired or garbled access token cannot authenticate anything
			// anymore; it does not need a blacklist row either.
			logger.Log.WithError(err).Debug("Access token presented at logout is not blacklistable")
		}
	}

	if !resolved && rawRefreshToken != "" {
		claims, err := s.codec.Parse(rawRefreshToken)
		if err == nil && s.codec.VerifyType(claims, model.TokenTypeRefresh) {
			memberID = claims.MemberID
			resolved = true
		}
	}

	if !resolved {
		return ErrTokenMalformed
	}

	if err := s.tokenRepo.Delete(memberID); err != nil {
		return err
	}

	logger.Log.WithField("member_id", memberID).Info("Member logged out, refresh session deleted")
	return nil
}
