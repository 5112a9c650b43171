package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

func TestSnapshotRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		repo := NewSnapshotRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		stock := 8950.0
		err := repo.SaveSnapshot(context.Background(), models.StockSnapshot{
			Date:         time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			InitialStock: 9000,
			TotalVolume:  50,
			ClosingStock: &stock,
			LedgerAlert:  "OK",
		})
		require.NoError(mt, err)
	})

	mt.Run("save failure", func(mt *mtest.T) {
		repo := NewSnapshotRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.SaveSnapshot(context.Background(), models.StockSnapshot{})
		assert.Error(mt, err)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewSnapshotRepository(mt.DB)
		ns := mt.DB.Name() + "." + snapshotsCollection

		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "date", Value: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)}, {Key: "total_volume", Value: 62.9}, {Key: "closing_stock", Value: 8937.1}, {Key: "ledger_alert", Value: "OK"}},
			bson.D{{Key: "date", Value: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}, {Key: "total_volume", Value: 50.0}},
		)
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		got, err := repo.ListSnapshots(context.Background(), 10)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, 62.9, got[0].TotalVolume)
		require.NotNil(mt, got[0].ClosingStock)
		assert.Equal(mt, 8937.1, *got[0].ClosingStock)
		assert.Nil(mt, got[1].ClosingStock)
	})
}
