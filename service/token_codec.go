// file: service/token_codec.go

package service

import (
	"errors"
	"fmt"
	"go-habit-auth/common"
	"go-habit-auth/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec signs and parses bearer tokens. It is a pure function of its
// inputs, the signing key and the injected clock; it touches no storage.
type TokenCodec struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      common.Clock
}

// NewTokenCodec creates a new TokenCodec.
func NewTokenCodec(secretKey string, accessTTL, refreshTTL time.Duration, clock common.Clock) *TokenCodec {
	return &TokenCodec{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clock,
	}
}

// Issue produces a signed token string for the member. The TTL is selected
// by the token type: short for access tokens, long for refresh tokens.
// The expiry baked into the claims is also returned for callers that persist
// or transport it. Every token carries a unique jti, so two tokens issued in
// the same second are still distinct values; rotation's store-equality check
// depends on that.
func (c *TokenCodec) Issue(memberID int64, email, socialUID string, tokenType model.TokenType) (string, time.Time, error) {
	now := c.clock.Now()

	ttl := c.accessTTL
	if tokenType == model.TokenTypeRefresh {
		ttl = c.refreshTTL
	}
	expiresAt := now.Add(ttl)

	claims := &model.TokenClaims{
		MemberID:  memberID,
		Email:     email,
		SocialUID: socialUID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Parse verifies the signature and decodes the claims. No claim extracted
// from the token may be trusted unless Parse returns a nil error.
func (c *TokenCodec) Parse(tokenString string) (*model.TokenClaims, error) {
	claims := &model.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrSignatureInvalid
	}
	return claims, nil
}

// VerifyType guards against using an access token where a refresh token is
// required and vice versa.
func (c *TokenCodec) VerifyType(claims *model.TokenClaims, expected model.TokenType) bool {
	return claims.TokenType == expected
}
