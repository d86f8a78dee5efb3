package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

func TestService_Create(t *testing.T) {
	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantErr   error
	}

	bogota := time.FixedZone("COT", -5*60*60)
	dbErr := errors.New("db error")

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: transaction.CreateParams{
					UserID:      uuid.New(),
					Amount:      decimal.NewFromInt(100000),
					Type:        transaction.TypeIncome,
					Description: "Salary",
					Date:        time.Date(2026, 1, 31, 5, 0, 0, 0, bogota),
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.Equal(t, time.UTC, tx.Date.Location())
						assert.Equal(t, 10, tx.Date.Hour())

						tx.ID = uuid.New()
						tx.CreatedAt = time.Now()

						return nil
					})
			},
		},
		{
			name: "ZeroAmountAllowed",
			args: args{
				params: transaction.CreateParams{
					Amount: decimal.Zero,
					Type:   transaction.TypeExpense,
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "NegativeAmount",
			args: args{
				params: transaction.CreateParams{
					Amount: decimal.NewFromInt(-5),
					Type:   transaction.TypeExpense,
				},
			},
			wantErr: transaction.ErrNegativeAmount,
		},
		{
			name: "InvalidType",
			args: args{
				params: transaction.CreateParams{
					Amount: decimal.NewFromInt(5),
					Type:   "transfer",
				},
			},
			wantErr: transaction.ErrInvalidType,
		},
		{
			name: "RepoError",
			args: args{
				params: transaction.CreateParams{
					Amount: decimal.NewFromInt(500),
					Type:   transaction.TypeIncome,
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(dbErr)
			},
			wantErr: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestService_List(t *testing.T) {
	type args struct {
		filter transaction.ListFilter
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantLen   int
		wantErr   bool
	}

	userID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []testCase{
		{
			name: "Success",
			args: args{filter: transaction.ListFilter{}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), transaction.ListFilter{}).
					Return([]*transaction.Transaction{
						{ID: uuid.New()},
						{ID: uuid.New()},
					}, nil)
			},
			wantLen: 2,
		},
		{
			name: "FilterPassedThrough",
			args: args{filter: transaction.ListFilter{UserID: &userID, StartDate: &start}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), transaction.ListFilter{UserID: &userID, StartDate: &start}).
					Return([]*transaction.Transaction{{ID: uuid.New(), UserID: userID}}, nil)
			},
			wantLen: 1,
		},
		{
			name: "Error",
			args: args{filter: transaction.ListFilter{}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), transaction.ListFilter{}).
					Return(nil, errors.New("list error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.List(context.Background(), tt.args.filter)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_Update_Validates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	err := svc.Update(context.Background(), &transaction.Transaction{
		ID:     uuid.New(),
		Amount: decimal.NewFromInt(-1),
		Type:   transaction.TypeIncome,
	})
	require.ErrorIs(t, err, transaction.ErrNegativeAmount)

	tx := &transaction.Transaction{
		ID:     uuid.New(),
		Amount: decimal.NewFromInt(10),
		Type:   transaction.TypeExpense,
		Date:   time.Date(2026, 2, 1, 9, 0, 0, 0, time.FixedZone("X", 3600)),
	}

	repo.EXPECT().UpdateTransaction(gomock.Any(), tx).Return(nil)

	require.NoError(t, svc.Update(context.Background(), tx))
	assert.Equal(t, time.UTC, tx.Date.Location())
}

func TestService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	id := uuid.New()
	repo.EXPECT().DeleteTransaction(gomock.Any(), id).Return(transaction.ErrNotFound)

	err := svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestTransaction_Signed(t *testing.T) {
	income := &transaction.Transaction{Amount: decimal.NewFromInt(30), Type: transaction.TypeIncome}
	expense := &transaction.Transaction{Amount: decimal.NewFromInt(30), Type: transaction.TypeExpense}

	assert.True(t, income.Signed().Equal(decimal.NewFromInt(30)))
	assert.True(t, expense.Signed().Equal(decimal.NewFromInt(-30)))
}

func importParams(owner uuid.UUID) []transaction.CreateParams {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	return []transaction.CreateParams{
		{UserID: owner, Amount: decimal.RequireFromString("12500.00"), Type: transaction.TypeExpense, Description: "Café", Date: date},
		{UserID: owner, Amount: decimal.NewFromInt(30000), Type: transaction.TypeExpense, Description: "Almuerzo", Date: date},
	}
}

func importMocks(t *testing.T) (*transaction.Service, *transaction.MockRepository, *transaction.MockImportTx) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	return transaction.NewService(repo), repo, transaction.NewMockImportTx(ctrl)
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	svc, repo, itx := importMocks(t)

	owner := uuid.New()
	params := importParams(owner)
	date := params[0].Date

	repo.EXPECT().BeginImport(gomock.Any(), owner, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(2)).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Imported, 2)
	assert.Equal(t, owner, result.Imported[0].UserID)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	svc, repo, itx := importMocks(t)

	owner := uuid.New()
	params := importParams(owner)

	// Stored with a time of day and without trailing zeros; still the same movement.
	existing := &transaction.Transaction{
		ID:          uuid.New(),
		UserID:      owner,
		Amount:      decimal.NewFromInt(12500),
		Type:        transaction.TypeExpense,
		Description: "Café",
		Date:        params[0].Date.Add(9 * time.Hour),
	}

	repo.EXPECT().BeginImport(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	require.Len(t, result.New, 1)
	assert.Equal(t, "Almuerzo", result.New[0].Description)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := transaction.NewService(transaction.NewMockRepository(ctrl))

	result, err := svc.ImportBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_Rejects(t *testing.T) {
	type testCase struct {
		name    string
		mutate  func(p []transaction.CreateParams)
		wantErr error
	}

	tests := []testCase{
		{
			name:    "MixedOwners",
			mutate:  func(p []transaction.CreateParams) { p[1].UserID = uuid.New() },
			wantErr: transaction.ErrMixedOwners,
		},
		{
			name:    "InvalidType",
			mutate:  func(p []transaction.CreateParams) { p[1].Type = "transfer" },
			wantErr: transaction.ErrInvalidType,
		},
		{
			name:    "NegativeAmount",
			mutate:  func(p []transaction.CreateParams) { p[0].Amount = decimal.NewFromInt(-1) },
			wantErr: transaction.ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := transaction.NewService(transaction.NewMockRepository(ctrl))

			params := importParams(uuid.New())
			tt.mutate(params)

			_, err := svc.ImportBatch(context.Background(), params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_CreateBatch(t *testing.T) {
	svc, repo, itx := importMocks(t)

	bogota := time.FixedZone("COT", -5*60*60)
	owner := uuid.New()
	params := []transaction.CreateParams{
		{UserID: owner, Amount: decimal.NewFromInt(5000), Type: transaction.TypeIncome, Description: "Reembolso", Date: time.Date(2026, 2, 3, 20, 0, 0, 0, bogota)},
		{UserID: owner, Amount: decimal.NewFromInt(9000), Type: transaction.TypeExpense, Description: "Taxi", Date: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)},
	}

	repo.EXPECT().
		BeginImport(gomock.Any(), owner, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), time.Date(2026, 2, 4, 1, 0, 0, 0, time.UTC)).
		Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	txs, err := svc.CreateBatch(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, time.UTC, txs[0].Date.Location())
	assert.Equal(t, transaction.TypeIncome, txs[0].Type)
}

func TestService_CreateBatch_CommitFailure(t *testing.T) {
	svc, repo, itx := importMocks(t)

	repo.EXPECT().BeginImport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(errors.New("connection lost"))
	itx.EXPECT().Rollback().Return(nil)

	_, err := svc.CreateBatch(context.Background(), importParams(uuid.New()))
	assert.ErrorContains(t, err, "commit import")
}
