package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"vitiligo-tracker/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesAndCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, int64(10), user.ChatID)

	user.SetState(entity.StateAwaitingAge)
	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, again.State)

	require.NoError(t, repo.Save(ctx, user))
	again, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingAge, again.State)
}

func TestMemoryUserRepository_UpdateState(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.UpdateState(ctx, 5, entity.StateProcessing))

	_, err := repo.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateState(ctx, 5, entity.StateAwaitingWeeks))

	user, err := repo.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingWeeks, user.State)
}

func TestMemoryUserRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryUserRepository().Get(ctx, 1, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func sampleRecord(userID string, at time.Time, label string) *entity.TrackingRecord {
	return &entity.TrackingRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		PatientName:    "Anna",
		Age:            30,
		ElapsedWeeks:   4,
		TreatmentLabel: label,
		BeforeArea:     1000,
		AfterArea:      500,
		RateOfChange:   -12.5,
		CreatedAt:      at,
	}
}

func TestMemoryHistoryRepository_NewestFirstWithLimit(t *testing.T) {
	repo := NewMemoryHistoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleRecord("u1", base, "first")))
	require.NoError(t, repo.Save(ctx, sampleRecord("u1", base.Add(2*time.Hour), "third")))
	require.NoError(t, repo.Save(ctx, sampleRecord("u1", base.Add(time.Hour), "second")))
	require.NoError(t, repo.Save(ctx, sampleRecord("u2", base, "other")))

	all, err := repo.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].TreatmentLabel)
	require.Equal(t, "first", all[2].TreatmentLabel)

	limited, err := repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "second", limited[1].TreatmentLabel)

	none, err := repo.ListByUser(ctx, "nobody", 5)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestTrackingRow_Mapping(t *testing.T) {
	rec := sampleRecord("u1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), "label")
	rec.Gender = "female"
	rec.PercentBefore = 10
	rec.PercentAfter = 5
	rec.ChangePercentage = -50

	row := rowFromRecord(rec)
	require.Equal(t, "tracking_history", row.TableName())
	require.Equal(t, rec, row.record())
}

// Требует живой PostgreSQL: TEST_DATABASE_DSN=postgres://...
func TestPostgresHistoryRepository_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	db, err := OpenPostgres(dsn)
	require.NoError(t, err)
	repo := NewPostgresHistoryRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.AutoMigrate(ctx))

	userID := "test-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Save(ctx, sampleRecord(userID, base, "older")))
	require.NoError(t, repo.Save(ctx, sampleRecord(userID, base.Add(time.Minute), "newer")))

	got, err := repo.ListByUser(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "newer", got[0].TreatmentLabel)

	require.NoError(t, db.WithContext(ctx).Where("user_id = ?", userID).Delete(&TrackingRow{}).Error)
}
