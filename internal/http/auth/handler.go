package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	httpuser "github.com/MrJamesThe3rd/ledger/internal/http/user"
	"github.com/MrJamesThe3rd/ledger/internal/user"
)

type Handler struct {
	users  *user.Service
	issuer *auth.Issuer
}

func NewHandler(users *user.Service, issuer *auth.Issuer) *Handler {
	return &Handler{users: users, issuer: issuer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expires_at"`
	User      httpuser.UserResponse `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		render.InternalError(w, r, "failed to authenticate", err)

		return
	}

	token, exp, err := h.issuer.Issue(u)
	if err != nil {
		render.InternalError(w, r, "failed to issue token", err)
		return
	}

	render.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      httpuser.ToResponse(u),
	})
}
