package workers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/models"
	"agency-backend/internal/storage"
)

type fakeTempSweepStore struct {
	mu      sync.Mutex
	expired []models.TempFile
	deleted []primitive.ObjectID
	failIDs map[string]bool
}

func (f *fakeTempSweepStore) ListExpiredTempFiles(_ context.Context, _ time.Time, _ int64) ([]models.TempFile, error) {
	return f.expired, nil
}

func (f *fakeTempSweepStore) DeleteTempFile(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id.Hex()] {
		return fmt.Errorf("simulated delete failure")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSweepStorage struct {
	mu             sync.Mutex
	destroyed      []string
	deletedFolders []string
}

func (f *fakeSweepStorage) Upload(context.Context, []byte, string, string, string) (*storage.UploadResult, error) {
	return nil, fmt.Errorf("not used")
}
func (f *fakeSweepStorage) Download(context.Context, string, string) ([]byte, error) {
	return nil, fmt.Errorf("not used")
}
func (f *fakeSweepStorage) Destroy(_ context.Context, publicID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}
func (f *fakeSweepStorage) DeleteByPrefix(context.Context, string) error { return nil }
func (f *fakeSweepStorage) DeleteFolder(_ context.Context, folder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFolders = append(f.deletedFolders, folder)
	return nil
}
func (f *fakeSweepStorage) AssetExists(context.Context, string, string) error { return nil }

func tempFileFixture(folder string, files ...string) models.TempFile {
	tf := models.TempFile{
		ID:         primitive.NewObjectID(),
		TempFolder: folder,
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	for _, name := range files {
		tf.Files = append(tf.Files, models.FileMeta{
			Name:         name,
			PublicID:     folder + "/" + name,
			ResourceType: "raw",
		})
	}
	return tf
}

func TestSweepTempFilesReclaimsStorageAndRecords(t *testing.T) {
	store := &fakeTempSweepStore{expired: []models.TempFile{
		tempFileFixture("temp_orders/a_1", "spec", "notes"),
		tempFileFixture("temp_orders/b_2", "brief"),
	}}
	stg := &fakeSweepStorage{}

	sweeper := NewSweeper(store, stg, zap.NewNop())
	swept, err := sweeper.SweepTempFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, swept)
	assert.Len(t, store.deleted, 2)
	assert.Len(t, stg.destroyed, 3)
	assert.Equal(t, []string{"temp_orders/a_1", "temp_orders/b_2"}, stg.deletedFolders)
}

func TestSweepTempFilesSkipsRecordsItCannotDelete(t *testing.T) {
	good := tempFileFixture("temp_orders/a_1", "spec")
	bad := tempFileFixture("temp_orders/b_2", "brief")

	store := &fakeTempSweepStore{
		expired: []models.TempFile{good, bad},
		failIDs: map[string]bool{bad.ID.Hex(): true},
	}
	stg := &fakeSweepStorage{}

	sweeper := NewSweeper(store, stg, zap.NewNop())
	swept, err := sweeper.SweepTempFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	for _, id := range store.deleted {
		assert.False(t, strings.EqualFold(id.Hex(), bad.ID.Hex()))
	}
}

func TestSweepTempFilesNothingExpired(t *testing.T) {
	sweeper := NewSweeper(&fakeTempSweepStore{}, &fakeSweepStorage{}, zap.NewNop())
	swept, err := sweeper.SweepTempFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, swept)
}
