package handlers

import (
	"net/http"

	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo      *repo.UserRepo
	AuditRepo *repo.AuditRepo
}

// ==========================
// Create User (role defaults to viewer)
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Password string `json:"password" validate:"required,min=8,max=72"`
		Role     string `json:"role" validate:"omitempty,oneof=viewer admin"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleViewer
	}

	user, err := h.Repo.Create(r.Context(), input.Username, input.Password, role)
	id := input.Username
	if user != nil {
		id = user.ID
	}
	recordAudit(r, h.AuditRepo, "create", "user", id, err)
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	users, err := h.Repo.List(r.Context(), p)
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}

	out := listResponse(users, p)
	out["total"] = total
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Repo.GetByID(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// Update User
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Role     string `json:"role" validate:"omitempty,oneof=viewer admin"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	id := urlID(r)

	user, err := h.Repo.Update(r.Context(), id, input.Username, input.Role)
	recordAudit(r, h.AuditRepo, "update", "user", id, err)
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// Delete User (not yourself)
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	if self, ok := middleware.GetUserID(r.Context()); ok && self == id {
		JSONError(w, "cannot delete your own account", http.StatusBadRequest)
		return
	}

	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "user", id, err)
	if err != nil {
		writeRepoError(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
