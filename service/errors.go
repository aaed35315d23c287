// file: service/errors.go

package service

import "errors"

// Authentication failure taxonomy. Every reason below collapses to the same
// generic unauthorized response at the API boundary; the specific reason is
// only ever logged internally.
var (
	ErrTokenMalformed      = errors.New("token is malformed")
	ErrSignatureInvalid    = errors.New("token signature is invalid")
	ErrTokenExpired        = errors.New("token is expired")
	ErrWrongTokenType      = errors.New("token has the wrong type")
	ErrRefreshNotFound     = errors.New("no stored refresh token for member")
	ErrRefreshMismatch     = errors.New("stored refresh token does not match the presented one")
	ErrTokenBlacklisted    = errors.New("access token has been revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ErrRateLimited is returned when a caller exceeds the attempt budget for
// login or refresh. It maps to 429, not 401.
var ErrRateLimited = errors.New("too many attempts")

var authFailures = []error{
	ErrTokenMalformed,
	ErrSignatureInvalid,
	ErrTokenExpired,
	ErrWrongTokenType,
	ErrRefreshNotFound,
	ErrRefreshMismatch,
	ErrTokenBlacklisted,
	ErrInvalidRefreshToken,
}

// IsAuthFailure reports whether err is an authentication decision as opposed
// to an infrastructure failure. Store I/O errors are never auth failures and
// must surface as retriable server errors, not as "token invalid".
func IsAuthFailure(err error) bool {
	for _, target := range authFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
