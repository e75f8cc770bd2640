package workers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/models"
	"agency-backend/internal/retry"
	"agency-backend/internal/services"
)

// TempFileSweepStore is the slice of the database the sweeper needs.
type TempFileSweepStore interface {
	ListExpiredTempFiles(ctx context.Context, now time.Time, limit int64) ([]models.TempFile, error)
	DeleteTempFile(ctx context.Context, id primitive.ObjectID) error
}

// Sweeper reclaims staged uploads whose 24h expiry has passed. The TTL
// index drops the documents on its own, but cannot touch the storage
// objects, so the sweeper handles both and keys off the same expiresAt.
type Sweeper struct {
	temps   TempFileSweepStore
	storage services.Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewSweeper(temps TempFileSweepStore, store services.Storage, logger *zap.Logger) *Sweeper {
	return &Sweeper{temps: temps, storage: store, logger: logger, now: time.Now}
}

// SweepTempFiles removes expired staged uploads and returns how many
// records were reclaimed. Per-record failures are logged and skipped so
// one bad record cannot wedge the sweep.
func (s *Sweeper) SweepTempFiles(ctx context.Context) (int, error) {
	expired, err := s.temps.ListExpiredTempFiles(ctx, s.now(), 100)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, tf := range expired {
		if !s.reclaim(ctx, tf) {
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.Info("temp file sweep finished", zap.Int("swept", swept))
	}
	return swept, nil
}

func (s *Sweeper) reclaim(ctx context.Context, tf models.TempFile) bool {
	for _, f := range tf.Files {
		f := f
		err := retry.Operation(func() error {
			return s.storage.Destroy(ctx, f.PublicID, f.ResourceType)
		})
		if err != nil {
			s.logger.Warn("failed to destroy expired staged file",
				zap.String("publicId", f.PublicID), zap.Error(err))
		}
	}

	if err := s.storage.DeleteFolder(ctx, tf.TempFolder); err != nil {
		s.logger.Warn("failed to delete expired temp folder",
			zap.String("folder", tf.TempFolder), zap.Error(err))
	}

	if err := s.temps.DeleteTempFile(ctx, tf.ID); err != nil {
		s.logger.Error("failed to delete expired temp record",
			zap.String("tempId", tf.ID.Hex()), zap.Error(err))
		return false
	}
	return true
}
