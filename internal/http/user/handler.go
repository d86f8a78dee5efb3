package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	"github.com/MrJamesThe3rd/ledger/internal/user"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the admin-only user management endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", withID(h.get))
	r.Patch("/{id}/role", withID(h.updateRole))
	r.Delete("/{id}", withID(h.delete))
}

type idHandler func(w http.ResponseWriter, r *http.Request, id uuid.UUID)

// withID parses the {id} URL parameter before calling next.
func withID(next idHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		next(w, r, id)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, user.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, user.ErrInvalidRole), errors.Is(err, user.ErrWeakPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		render.InternalError(w, r, msg, err)
	}
}

// Me serves the caller's own account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.get(w, r, p.UserID)
}

type createUserRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Name     string    `json:"name" validate:"required,max=120"`
	Password string    `json:"password" validate:"required,min=8"`
	Role     user.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.svc.Create(r.Context(), user.CreateParams(req))
	if err != nil {
		writeError(w, r, "failed to create user", err)
		return
	}

	render.JSON(w, http.StatusCreated, ToResponse(u))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, "failed to list users", err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(users))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "failed to get user", err)
		return
	}

	render.JSON(w, http.StatusOK, ToResponse(u))
}

type updateRoleRequest struct {
	Role user.Role `json:"role" validate:"required,oneof=admin user"`
}

// updateRole refuses to let an admin demote themselves, which could leave the
// ledger without any admin.
func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req updateRoleRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if p, _ := auth.PrincipalFrom(r.Context()); p.UserID == id && req.Role != user.RoleAdmin {
		http.Error(w, "cannot demote yourself", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateRole(r.Context(), id, req.Role); err != nil {
		writeError(w, r, "failed to update role", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if p, _ := auth.PrincipalFrom(r.Context()); p.UserID == id {
		http.Error(w, "cannot delete yourself", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, "failed to delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
