package handler

import (
	"context"
	"go-habit-auth/common"
	"go-habit-auth/logger"
	"go-habit-auth/model"
	"go-habit-auth/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	MemberIDKey  contextKey = "memberID"
	EmailKey     contextKey = "email"
	SocialUIDKey contextKey = "socialUID"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when no well-formed bearer header is present.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return ""
	}
	return headerParts[1]
}

// AuthMiddleware is the per-request authentication gate. Requests without a
// bearer token pass through unauthenticated; downstream authorization decides
// whether that is acceptable for the route. Requests with a token are either
// rejected with a generic unauthorized response (the specific reason is only
// logged) or forwarded with the resolved member attached to the context.
func AuthMiddleware(validator *service.TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateAccess(tokenString)
			if err != nil {
				if service.IsAuthFailure(err) {
					logger.Log.WithError(err).Warn("Access token rejected")
					appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil)
					appErr.Send(w)
					return
				}
				// The store was unreachable: infrastructure failure, not an
				// authentication decision. Must stay retriable.
				appErr := common.NewAppError(http.StatusServiceUnavailable, "Authentication temporarily unavailable", err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), MemberIDKey, claims.MemberID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, SocialUIDKey, claims.SocialUID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MemberFromContext returns the member resolved by AuthMiddleware, if any.
func MemberFromContext(ctx context.Context) (model.TokenClaims, bool) {
	memberID, ok := ctx.Value(MemberIDKey).(int64)
	if !ok {
		return model.TokenClaims{}, false
	}
	email, _ := ctx.Value(EmailKey).(string)
	socialUID, _ := ctx.Value(SocialUIDKey).(string)
	return model.TokenClaims{MemberID: memberID, Email: email, SocialUID: socialUID}, true
}
