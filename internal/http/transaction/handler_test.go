package transaction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	httptransaction "github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/user"
)

func setup(t *testing.T) (chi.Router, *transaction.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	r := chi.NewRouter()
	r.Route("/transactions", httptransaction.NewHandler(transaction.NewService(repo)).Routes)

	return r, repo
}

func serve(h http.Handler, p auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.WithPrincipal(req.Context(), p))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Create(t *testing.T) {
	h, repo := setup(t)
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleUser}

	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			assert.Equal(t, p.UserID, tx.UserID)
			assert.Equal(t, "1250.50", tx.Amount.StringFixed(2))
			tx.ID = uuid.New()

			return nil
		})

	rec := serve(h, p, http.MethodPost, "/transactions/",
		`{"amount":"1250.50","type":"expense","description":"mercado","date":"2026-01-31T10:00:00-05:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 1250.5, body["amount"], 0)
	assert.Equal(t, "2026-01-31T15:00:00Z", body["date"])
}

func TestHandler_Create_Rejects(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleUser}

	tests := map[string]struct {
		body string
		want int
	}{
		"BadType":        {`{"amount":1,"type":"gift","date":"2026-01-01T00:00:00Z"}`, http.StatusBadRequest},
		"MissingDate":    {`{"amount":1,"type":"income"}`, http.StatusBadRequest},
		"MissingAmount":  {`{"type":"income","date":"2026-01-01T00:00:00Z"}`, http.StatusBadRequest},
		"NullAmount":     {`{"amount":null,"type":"income","date":"2026-01-01T00:00:00Z"}`, http.StatusBadRequest},
		"NegativeAmount": {`{"amount":-5,"type":"income","date":"2026-01-01T00:00:00Z"}`, http.StatusBadRequest},
		"UnknownField":   {`{"amount":1,"type":"income","date":"2026-01-01T00:00:00Z","status":"x"}`, http.StatusBadRequest},
		"OtherOwner": {
			`{"amount":1,"type":"income","date":"2026-01-01T00:00:00Z","user_id":"` + uuid.NewString() + `"}`,
			http.StatusForbidden,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h, _ := setup(t)

			rec := serve(h, p, http.MethodPost, "/transactions/", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_List_ScopesToCaller(t *testing.T) {
	h, repo := setup(t)
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleUser}

	repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
			require.NotNil(t, f.UserID)
			assert.Equal(t, p.UserID, *f.UserID)
			require.NotNil(t, f.EndBefore)
			assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *f.EndBefore)

			return []*transaction.Transaction{{ID: uuid.New(), UserID: p.UserID, Amount: decimal.NewFromInt(5), Type: transaction.TypeIncome}}, nil
		})

	// user_id is ignored for non-admins.
	rec := serve(h, p, http.MethodGet, "/transactions/?from=2026-01-01&to=2026-01-31&user_id="+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandler_List_AdminFilter(t *testing.T) {
	h, repo := setup(t)
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleAdmin}
	target := uuid.New()

	repo.EXPECT().ListTransactions(gomock.Any(), transaction.ListFilter{UserID: &target}).Return(nil, nil)

	rec := serve(h, p, http.MethodGet, "/transactions/?user_id="+target.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandler_List_InvertedRange(t *testing.T) {
	h, _ := setup(t)

	rec := serve(h, auth.Principal{UserID: uuid.New()}, http.MethodGet, "/transactions/?from=2026-02-01&to=2026-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Get_HidesForeignTransactions(t *testing.T) {
	h, repo := setup(t)
	id := uuid.New()

	repo.EXPECT().GetTransaction(gomock.Any(), id).
		Return(&transaction.Transaction{ID: id, UserID: uuid.New(), Type: transaction.TypeIncome}, nil).
		Times(2)

	rec := serve(h, auth.Principal{UserID: uuid.New(), Role: user.RoleUser}, http.MethodGet, "/transactions/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, auth.Principal{UserID: uuid.New(), Role: user.RoleAdmin}, http.MethodGet, "/transactions/"+id.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	h, repo := setup(t)
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleUser}
	id := uuid.New()

	repo.EXPECT().GetTransaction(gomock.Any(), id).Return(&transaction.Transaction{
		ID: id, UserID: p.UserID, Amount: decimal.NewFromInt(10), Type: transaction.TypeIncome,
	}, nil)
	repo.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			assert.Equal(t, transaction.TypeExpense, tx.Type)
			assert.Equal(t, "10", tx.Amount.String())

			return nil
		})

	rec := serve(h, p, http.MethodPatch, "/transactions/"+id.String(), `{"type":"expense"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandler_Delete(t *testing.T) {
	h, repo := setup(t)
	p := auth.Principal{UserID: uuid.New(), Role: user.RoleUser}
	id := uuid.New()

	repo.EXPECT().GetTransaction(gomock.Any(), id).Return(&transaction.Transaction{ID: id, UserID: p.UserID}, nil)
	repo.EXPECT().DeleteTransaction(gomock.Any(), id).Return(nil)

	rec := serve(h, p, http.MethodDelete, "/transactions/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, p, http.MethodDelete, "/transactions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
