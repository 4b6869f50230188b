package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo  *repo.UserRepo
	AuditRepo *repo.AuditRepo
	Secret    []byte
	TokenTTL  time.Duration
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) ttl() time.Duration {
	if h.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return h.TokenTTL
}

// ==========================
// Register (first account becomes admin, later ones are viewers)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeAndValidate(w, r, &input) {
		return
	}

	role := models.RoleViewer
	n, err := h.UserRepo.Count(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	if n == 0 {
		role = models.RoleAdmin
	}

	user, err := h.UserRepo.Create(r.Context(), input.Username, input.Password, role)
	if err != nil {
		recordAudit(r, h.AuditRepo, "register", "user", input.Username, err)
		writeRepoError(w, r, err, "user")
		return
	}
	r = r.WithContext(middleware.WithUser(r.Context(), middleware.User{ID: user.ID, Username: user.Username, Role: user.Role}))
	recordAudit(r, h.AuditRepo, "register", "user", user.ID, nil)

	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login (username and password checked against the bcrypt hash)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), input.Username)
	if err != nil || !repo.CheckPassword(user, input.Password) {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	signed, err := middleware.IssueToken(h.Secret, middleware.User{ID: user.ID, Username: user.Username, Role: user.Role}, h.ttl())
	if err != nil {
		slog.Error("issue token", "user", user.Username, "err", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}
