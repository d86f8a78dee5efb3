package transaction

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
}

type createTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Type        transaction.Type `json:"type" validate:"required,oneof=income expense"`
	Description string           `json:"description" validate:"max=500"`
	Date        time.Time        `json:"date" validate:"required"`
	// UserID lets an admin record a transaction on behalf of another user.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
	case errors.Is(err, transaction.ErrInvalidType), errors.Is(err, transaction.ErrNegativeAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		render.InternalError(w, r, "transaction request failed", err)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	var req createTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	owner, ok := p.ActingFor(req.UserID)
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	tx, err := h.svc.Create(r.Context(), transaction.CreateParams{
		UserID:      owner,
		Amount:      *req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, ToResponse(tx))
}

// listFilter reads from and to with the same parsing and inclusive semantics
// as the report endpoints. Only admins may pass user_id; everyone else is
// pinned to their own transactions.
func listFilter(p auth.Principal, q url.Values) (transaction.ListFilter, error) {
	from, err := report.ParseBound(q.Get("from"))
	if err != nil {
		return transaction.ListFilter{}, err
	}

	to, err := report.ParseBound(q.Get("to"))
	if err != nil {
		return transaction.ListFilter{}, err
	}

	rng, err := report.NormalizeRange(from, to)
	if err != nil {
		return transaction.ListFilter{}, err
	}

	filter := transaction.ListFilter{StartDate: rng.From, EndBefore: rng.Until}

	switch s := q.Get("user_id"); {
	case !p.IsAdmin():
		filter.UserID = &p.UserID
	case s != "":
		id, err := uuid.Parse(s)
		if err != nil {
			return transaction.ListFilter{}, errors.New("invalid user_id")
		}

		filter.UserID = &id
	}

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	filter, err := listFilter(p, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		render.InternalError(w, r, "failed to list transactions", err)
		return
	}

	render.JSON(w, http.StatusOK, ToResponseList(txs))
}

// load fetches the transaction named in the URL and hides it from callers
// that neither own it nor are admins.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*transaction.Transaction, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}

	if p, _ := auth.PrincipalFrom(r.Context()); !p.IsAdmin() && tx.UserID != p.UserID {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return nil, false
	}

	return tx, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.load(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, ToResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), tx.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateTransactionRequest struct {
	Description *string           `json:"description,omitempty" validate:"omitempty,max=500"`
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Type        *transaction.Type `json:"type,omitempty" validate:"omitempty,oneof=income expense"`
	Date        *time.Time        `json:"date,omitempty"`
}

func patch[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply copies the fields present in the patch onto tx.
func (req updateTransactionRequest) apply(tx *transaction.Transaction) {
	patch(&tx.Description, req.Description)
	patch(&tx.Amount, req.Amount)
	patch(&tx.Type, req.Type)
	patch(&tx.Date, req.Date)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, ok := h.load(w, r)
	if !ok {
		return
	}

	req.apply(tx)

	if err := h.svc.Update(r.Context(), tx); err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, ToResponse(tx))
}
