// file: model/request.go

package model

// LoginRequest carries the identity attributes the social-login
// collaborator resolved for the member. This core never re-derives them.
type LoginRequest struct {
	MemberID  int64  `json:"member_id" validate:"required,gt=0"`
	Email     string `json:"email" validate:"required,email"`
	SocialUID string `json:"social_uid" validate:"required"`
}

// TokenResponse is the body returned by login and refresh. The access
// token is additionally mirrored into the Authorization response header;
// the refresh token travels only in the HTTP-only cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
