// file: service/token_validator.go

package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"go-habit-auth/common"
	"go-habit-auth/model"
	"go-habit-auth/repository"
)

// HashToken returns the SHA-256 hex digest of a raw token string. The raw
// secret is never persisted; blacklist rows are keyed by this hash.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenValidator combines the codec with both stores to certify a
// presented token.
type TokenValidator struct {
	codec         *TokenCodec
	tokenRepo     repository.ITokenRepository
	blacklistRepo repository.IBlacklistRepository
	clock         common.Clock
}

// NewTokenValidator creates a new TokenValidator.
func NewTokenValidator(codec *TokenCodec, tokenRepo repository.ITokenRepository, blacklistRepo repository.IBlacklistRepository, clock common.Clock) *TokenValidator {
	return &TokenValidator{
		codec:         codec,
		tokenRepo:     tokenRepo,
		blacklistRepo: blacklistRepo,
		clock:         clock,
	}
}

// ValidateAccess certifies an access token: signature, expiry, type tag and
// absence from the blacklist. Store I/O failures propagate as-is so the
// caller can distinguish infrastructure trouble from a rejected token.
func (v *TokenValidator) ValidateAccess(raw string) (*model.TokenClaims, error) {
	claims, err := v.codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !v.codec.VerifyType(claims, model.TokenTypeAccess) {
		return nil, ErrWrongTokenType
	}

	revoked, err := v.blacklistRepo.Contains(HashToken(raw), v.clock.Now())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenBlacklisted
	}
	return claims, nil
}

// ValidateRefresh certifies a refresh token: signature, expiry, type tag and
// exact equality with the value stored for the member. The equality check is
// the anti-replay guard: after rotation the store holds the new token, so any
// future presentation of the old value no longer matches.
func (v *TokenValidator) ValidateRefresh(raw string) (*model.TokenClaims, error) {
	claims, err := v.codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !v.codec.VerifyType(claims, model.TokenTypeRefresh) {
		return nil, ErrWrongTokenType
	}

	stored, err := v.tokenRepo.Find(claims.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}
	if stored.Token != raw {
		return nil, ErrRefreshMismatch
	}
	return claims, nil
}
