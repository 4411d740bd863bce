package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sleepoutside/storefront/internal/account"
	"github.com/sleepoutside/storefront/internal/platform/web"
)

// AccountHandler exposes the simulated signup/login flow.
type AccountHandler struct {
	accounts *account.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *account.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// loginDto represents the request body for a login attempt.
type loginDto struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionDto is the response shape for register and login.
type sessionDto struct {
	User  *account.User `json:"user"`
	Token string        `json:"token"`
}

// RegisterRoutes registers the HTTP routes for accounts.
func (h *AccountHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Post("/login", h.Login)
		r.Put("/{id}", h.UpdateProfile)
	})
}

// Register creates a new account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var dto account.CreateUserDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateStruct(w, mLogger, h.validate, dto) {
		return
	}

	user, token, err := h.accounts.Register(r.Context(), dto)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			web.RespondError(w, mLogger, http.StatusConflict, "Email already registered")
			return
		}
		mLogger.ErrorContext(r.Context(), "Registration failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Registration failed")
		return
	}
	mLogger.InfoContext(r.Context(), "User registered", "user_id", user.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, sessionDto{User: user, Token: token})
}

// Login checks credentials and opens a session.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var dto loginDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateStruct(w, mLogger, h.validate, dto) {
		return
	}

	user, token, err := h.accounts.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		mLogger.ErrorContext(r.Context(), "Login failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Login failed")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sessionDto{User: user, Token: token})
}

// UpdateProfile applies a partial profile update.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID := chi.URLParam(r, "id")

	var dto account.UpdateProfileDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, dto)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("User %s not found", userID))
			return
		}
		mLogger.ErrorContext(r.Context(), "Profile update failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Profile update failed")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, user)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *AccountHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
