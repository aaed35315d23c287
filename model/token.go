// file: model/token.go

package model

import "time"

// RefreshToken holds the single active refresh session for a member.
// The member id is the primary key, so saving is always an upsert and
// at most one record can exist per member.
type RefreshToken struct {
	MemberID  int64     `json:"member_id"`
	Token     string    `json:"-"` // The raw signed token is not exposed in JSON responses.
	ExpiresAt time.Time `json:"expires_at"`
}

// BlacklistedToken records a revoked access token until its natural
// expiry. Only the SHA-256 hash of the raw token is ever persisted.
type BlacklistedToken struct {
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
