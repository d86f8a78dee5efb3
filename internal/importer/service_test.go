package importer_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

const ledgerCSV = "date,type,amount,description\n2026-03-02,expense,25000,Taxi\n"

func TestService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	batcher := importer.NewMockBatcher(ctrl)
	svc := importer.NewService(batcher)

	owner := uuid.New()

	batcher.EXPECT().
		ImportBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params []transaction.CreateParams) (*transaction.ImportResult, error) {
			require.Len(t, params, 1)
			assert.Equal(t, owner, params[0].UserID)
			assert.Equal(t, "Taxi", params[0].Description)

			return &transaction.ImportResult{Imported: []*transaction.Transaction{{ID: uuid.New(), UserID: owner}}}, nil
		})

	result, err := svc.Import(context.Background(), owner, strings.NewReader(ledgerCSV))
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
}

type stubParser struct {
	params []transaction.CreateParams
	err    error
}

func (p stubParser) Parse(io.Reader) ([]transaction.CreateParams, error) {
	return p.params, p.err
}

func TestService_Import_Errors(t *testing.T) {
	t.Run("ParseFailureSkipsStore", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := importer.NewService(importer.NewMockBatcher(ctrl), importer.WithParser(stubParser{err: importer.ErrUnknownFormat}))

		_, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(""))
		assert.ErrorIs(t, err, importer.ErrUnknownFormat)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		batcher := importer.NewMockBatcher(ctrl)
		svc := importer.NewService(batcher)

		batcher.EXPECT().ImportBatch(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(ledgerCSV))
		assert.ErrorContains(t, err, "import batch")
	})
}

func TestService_Confirm(t *testing.T) {
	ctrl := gomock.NewController(t)
	batcher := importer.NewMockBatcher(ctrl)
	svc := importer.NewService(batcher)

	owner := uuid.New()
	params := []transaction.CreateParams{{
		UserID:      uuid.New(),
		Amount:      decimal.NewFromInt(25000),
		Type:        transaction.TypeExpense,
		Description: "Taxi",
		Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}}

	batcher.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
			assert.Equal(t, owner, params[0].UserID)
			return []*transaction.Transaction{{ID: uuid.New(), UserID: owner}}, nil
		})

	txs, err := svc.Confirm(context.Background(), owner, params)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = svc.Confirm(context.Background(), owner, nil)
	assert.ErrorIs(t, err, importer.ErrNoRows)
}
