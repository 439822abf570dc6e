package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// LoginRequest is the request body for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	authService auth.AuthService
	sessions    *auth.SessionManager
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. sessions may be nil when no
// browser surface is served; login then issues bearer tokens only.
func NewAuthHandler(authService auth.AuthService, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
// Register and login stay public; they only carry the general rate limit,
// keyed by remote host.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, _ := guards(authMiddleware, limits)
	public := func(hf http.HandlerFunc) http.HandlerFunc {
		if limits == nil || limits.General == nil {
			return hf
		}
		return limits.General(hf)
	}

	mux.HandleFunc("POST /api/auth/register", public(h.Register))
	mux.HandleFunc("POST /api/auth/login", public(h.Login))
	mux.HandleFunc("GET /api/auth/me", std(h.Me))
	mux.HandleFunc("POST /api/auth/logout", std(h.Logout))
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.SetToken(w, r, token); err != nil {
			h.logger.Warn("Failed to set session cookie", zap.Error(err))
		}
	}

	if err := WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, actor); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(w, r, h.logger); !ok {
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			h.logger.Warn("Failed to clear session cookie", zap.Error(err))
		}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Logged out",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
