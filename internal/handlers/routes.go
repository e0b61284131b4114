package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vidfriends/friendgraph/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Friends  FriendService
	Health   HealthChecker

	// AuthLimiter guards signup and login; FriendLimiter guards friendship mutations.
	AuthLimiter   RateLimiter
	FriendLimiter RateLimiter
}

// NewRouter wires every HTTP route. Friendship routes require a bearer access token.
func NewRouter(deps Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})

	health := HealthHandler{Database: deps.Health}
	router.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	authRoutes := router.PathPrefix("/api/v1/auth").Subrouter()
	authRoutes.HandleFunc("/signup", authHandler.SignUp).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authRoutes.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	friendHandler := FriendHandler{Friends: deps.Friends}
	friendRoutes := router.PathPrefix("/api/v1/friends").Subrouter()
	if deps.Sessions != nil {
		friendRoutes.Use(middleware.RequireSession(deps.Sessions))
	}
	friendRoutes.HandleFunc("", friendHandler.List).Methods(http.MethodGet)
	friendRoutes.HandleFunc("/requests", friendHandler.Incoming).Methods(http.MethodGet)

	mutations := friendRoutes.NewRoute().Subrouter()
	mutations.Use(middleware.RateLimit(deps.FriendLimiter, "friends"))
	mutations.HandleFunc("/requests", friendHandler.Send).Methods(http.MethodPost)
	mutations.HandleFunc("/requests/accept", friendHandler.Accept).Methods(http.MethodPost)
	mutations.HandleFunc("/requests/decline", friendHandler.Decline).Methods(http.MethodPost)

	return router
}
