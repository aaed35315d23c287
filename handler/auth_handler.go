package handler

import (
	"encoding/json"
	"go-habit-auth/common"
	"go-habit-auth/logger"
	"go-habit-auth/model"
	"go-habit-auth/service"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const refreshCookieName = "refresh_token"

// AuthHandler exposes the session lifecycle endpoints. It is the thin
// controller in front of the SessionService: transport concerns only.
type AuthHandler struct {
	sessionService *service.SessionService
	limiter        *service.RateLimiter
	clock          common.Clock
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessionService *service.SessionService, limiter *service.RateLimiter, clock common.Clock) *AuthHandler {
	return &AuthHandler{sessionService: sessionService, limiter: limiter, clock: clock}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

// setRefreshCookie arranges the refresh token for cookie transport:
// HTTP-only and Secure, with Max-Age equal to the remaining refresh TTL.
func setRefreshCookie(w http.ResponseWriter, token string, expiresAt, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(expiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// writeTokenResponse puts the access token on the wire and arranges the
// refresh cookie. Cookie Max-Age and expires_in are computed against the
// same clock the codec stamped the expiries with.
func (h *AuthHandler) writeTokenResponse(w http.ResponseWriter, pair *service.TokenPair) {
	now := h.clock.Now()
	w.Header().Set("Authorization", "Bearer "+pair.AccessToken)
	setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt, now)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(pair.AccessExpiresAt.Sub(now).Seconds()),
	})
}

// Login godoc
// @Summary      Start a session for a socially authenticated member
// @Description  Issues an access/refresh token pair for the identity the social-login collaborator resolved. Any prior session for the member is replaced.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Resolved member identity"
// @Success      200      {object}  model.TokenResponse
// @Failure      400      {string}  string  "validation error"
// @Failure      429      {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if !h.limiter.Allow(r.Context(), "login", clientIP(r)) {
		return common.NewAppError(http.StatusTooManyRequests, "Too many login attempts", service.ErrRateLimited)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"member_id": req.MemberID,
		"email":     req.Email,
	})
	log.Info("Login request received")

	pair, err := h.sessionService.Login(req.MemberID, req.Email, req.SocialUID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not start session", err)
	}

	h.writeTokenResponse(w, pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Validates the refresh cookie and issues a brand-new access/refresh pair. The presented refresh token becomes permanently unusable.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.TokenResponse
// @Failure      401  {object}  common.AppError
// @Failure      429  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
	}

	if !h.limiter.Allow(r.Context(), "refresh", clientIP(r)) {
		return common.NewAppError(http.StatusTooManyRequests, "Too many refresh attempts", service.ErrRateLimited)
	}

	pair, err := h.sessionService.Refresh(cookie.Value)
	if err != nil {
		if service.IsAuthFailure(err) {
			// The reason stays in the logs; the caller only learns "unauthorized".
			logger.Log.WithError(err).Warn("Refresh request rejected")
			clearRefreshCookie(w)
			return common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
		}
		return common.NewAppError(http.StatusServiceUnavailable, "Authentication temporarily unavailable", err)
	}

	h.writeTokenResponse(w, pair)
	return nil
}

// Logout godoc
// @Summary      End the member's session
// @Description  Deletes the member's refresh session, revokes the presented access token and clears the refresh cookie.
// @Tags         auth
// @Produce      json
// @Success      204  {string}  string  "no content"
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	accessToken := BearerToken(r)

	refreshToken := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	// The cookie is cleared no matter how logout resolves.
	clearRefreshCookie(w)

	if err := h.sessionService.Logout(accessToken, refreshToken); err != nil {
		if service.IsAuthFailure(err) {
			logger.Log.WithError(err).Warn("Logout request carried no resolvable token")
			return common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
		}
		return common.NewAppError(http.StatusServiceUnavailable, "Authentication temporarily unavailable", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Me godoc
// @Summary      Return the authenticated member
// @Description  Demonstrates the resolved principal the authentication gate exposes to downstream collaborators.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  common.AppError
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	member, ok := MemberFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"member_id":  member.MemberID,
		"email":      member.Email,
		"social_uid": member.SocialUID,
	})
	return nil
}
