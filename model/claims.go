package model

import "github.com/golang-jwt/jwt/v5"

// TokenType discriminates access tokens from refresh tokens inside the
// signed claims. Validators switch on this tag.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// TokenClaims is the claim set embedded in every signed token.
type TokenClaims struct {
	MemberID  int64     `json:"member_id"`
	Email     string    `json:"email"`
	SocialUID string    `json:"social_uid"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}
