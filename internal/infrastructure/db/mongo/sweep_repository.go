package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

const sweepEventsCollection = "sweep_events"

// SweepRepository implements ports.SweepAuditRepository using MongoDB.
type SweepRepository struct {
	db *mongo.Database
}

func NewSweepRepository(db *mongo.Database) ports.SweepAuditRepository {
	return &SweepRepository{db: db}
}

// InsertSweep persists a credited sweep to the sweep_events audit collection.
func (r *SweepRepository) InsertSweep(ctx context.Context, record *domain.SweepRecord) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	doc := bson.M{
		"user_id":      record.UserID,
		"hd_index":     record.HDIndex,
		"txid":         record.TxID,
		"satoshis":     record.Satoshis,
		"credit_delta": record.CreditDelta,
		"swept_at":     record.SweptAt.UTC(),
		"processed_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(sweepEventsCollection).InsertOne(ctx, doc)
	return err
}
