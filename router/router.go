package router

import (
	"go-habit-auth/handler"
	"go-habit-auth/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(authHandler *handler.AuthHandler, validator *service.TokenValidator) http.Handler {
	mux := http.NewServeMux()

	authGate := handler.AuthMiddleware(validator)

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("/auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("/auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	// Logout resolves and validates tokens itself: an expired access token
	// alongside a still-valid refresh cookie must still end the session, so
	// the gate stays out of this route.
	mux.Handle("/auth/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))
	mux.Handle("/auth/me", authGate(handler.ErrorHandlingMiddleware(authHandler.Me)))

	return mux
}
