package importcsv

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	httptx "github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc *importer.Service
}

func NewHandler(svc *importer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported     int                          `json:"imported"`
	Transactions []httptx.TransactionResponse `json:"transactions"`
}

type createParamsDTO struct {
	Amount      decimal.Decimal  `json:"amount"`
	Type        transaction.Type `json:"type" validate:"required,oneof=income expense"`
	Description string           `json:"description" validate:"max=500"`
	Date        time.Time        `json:"date" validate:"required"`
}

// paramsResponse echoes a parsed row that has not been stored yet.
type paramsResponse struct {
	Amount      json.Number      `json:"amount"`
	Type        transaction.Type `json:"type"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
}

type conflictDTO struct {
	Incoming paramsResponse             `json:"incoming"`
	Existing httptx.TransactionResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []paramsResponse `json:"new"`
	Conflicts []conflictDTO    `json:"conflicts"`
}

type confirmRequest struct {
	UserID *uuid.UUID        `json:"user_id,omitempty"`
	Params []createParamsDTO `json:"params" validate:"required,min=1,dive"`
}

// owner resolves whose ledger receives the rows. Only admins may name
// another user.
func writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, importer.ErrInvalidRow),
		errors.Is(err, importer.ErrNoRows),
		errors.Is(err, transaction.ErrInvalidType),
		errors.Is(err, transaction.ErrNegativeAmount),
		errors.Is(err, transaction.ErrMixedOwners):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		render.InternalError(w, r, "import failed", err)
	}
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	var requested *uuid.UUID

	if s := r.FormValue("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}

		requested = &id
	}

	userID, ok := p.ActingFor(requested)
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.svc.Import(r.Context(), userID, file)
	if err != nil {
		writeImportError(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]paramsResponse, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, row := range result.New {
			resp.New = append(resp.New, toParamsResponse(row))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsResponse(c.Incoming),
				Existing: httptx.ToResponse(c.Existing),
			})
		}

		render.JSON(w, http.StatusConflict, resp)

		return
	}

	render.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	var req confirmRequest
	if err := render.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, ok := p.ActingFor(req.UserID)
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Params))
	for _, dto := range req.Params {
		params = append(params, transaction.CreateParams{
			Amount:      dto.Amount,
			Type:        dto.Type,
			Description: dto.Description,
			Date:        dto.Date,
		})
	}

	txs, err := h.svc.Confirm(r.Context(), userID, params)
	if err != nil {
		writeImportError(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toSuccessResponse(txs))
}

func toSuccessResponse(txs []*transaction.Transaction) importSuccessResponse {
	return importSuccessResponse{
		Imported:     len(txs),
		Transactions: httptx.ToResponseList(txs),
	}
}

func toParamsResponse(p transaction.CreateParams) paramsResponse {
	return paramsResponse{
		Amount:      render.Money(p.Amount),
		Type:        p.Type,
		Description: p.Description,
		Date:        p.Date,
	}
}
