package repositories

import (
	"context"
	"testing"
	"time"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/pkg/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, store *Store, meter string, base time.Time, values ...int64) []*models.ReadingHistory {
	t.Helper()
	ctx := context.Background()

	var records []*models.ReadingHistory
	for i, v := range values {
		rec := &models.ReadingHistory{
			MeterID:      meter,
			ReadingValue: decimal.NewFromInt(v),
			ReadingTime:  base.Add(time.Duration(i) * time.Hour),
			Difference:   decimal.Zero,
		}
		require.NoError(t, store.Readings.Create(ctx, rec))
		records = append(records, rec)
	}
	return records
}

func TestReadingRepository_PreviousAndAfter(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	records := seedHistory(t, store, "M-1", base, 100, 150, 210, 260)
	seedHistory(t, store, "M-2", base, 5, 6)

	prev, err := store.Readings.GetPrevious(ctx, records[0])
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = store.Readings.GetPrevious(ctx, records[2])
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, records[1].ID, prev.ID)

	after, err := store.Readings.ListAfter(ctx, records[1])
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, records[2].ID, after[0].ID)
	assert.Equal(t, records[3].ID, after[1].ID)

	after, err = store.Readings.ListAfter(ctx, records[3])
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestReadingRepository_TiesOrderedByID(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	first := &models.ReadingHistory{MeterID: "M-1", ReadingValue: decimal.NewFromInt(1), ReadingTime: at}
	second := &models.ReadingHistory{MeterID: "M-1", ReadingValue: decimal.NewFromInt(2), ReadingTime: at}
	require.NoError(t, store.Readings.Create(ctx, first))
	require.NoError(t, store.Readings.Create(ctx, second))

	prev, err := store.Readings.GetPrevious(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first.ID, prev.ID)

	after, err := store.Readings.ListAfter(ctx, first)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, second.ID, after[0].ID)
}

func TestReadingRepository_ListRecentAndUpdate(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	values := make([]int64, 12)
	for i := range values {
		values[i] = int64(i * 10)
	}
	records := seedHistory(t, store, "M-1", base, values...)

	recent, err := store.Readings.ListRecent(ctx, "M-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, records[11].ID, recent[0].ID)
	assert.Equal(t, records[2].ID, recent[9].ID)

	require.NoError(t, store.Readings.UpdateValue(ctx, records[0].ID, decimal.NewFromInt(7), decimal.NewFromInt(7), ""))
	got, err := store.Readings.GetByID(ctx, records[0].ID)
	require.NoError(t, err)
	assert.True(t, got.ReadingValue.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "", got.PhotoURL)

	require.NoError(t, store.Readings.DeleteByMeters(ctx, []string{"M-1"}))
	all, err := store.Readings.ListByMeter(ctx, "M-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMeterRepository_ShiftReading(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()

	meter := &models.Meter{MeterNumber: "M-1", CampusID: 1, Location: "Library"}
	require.NoError(t, store.Meters.Create(ctx, meter))

	first := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Meters.ShiftReading(ctx, "M-1", MeterProjection{
		Value:      decimal.NewFromInt(100),
		Time:       first,
		Difference: decimal.NewFromInt(100),
	}))

	locked, err := store.Meters.GetByNumberForUpdate(ctx, "M-1")
	require.NoError(t, err)
	require.True(t, locked.CurrentReading.Valid)
	assert.False(t, locked.LastReading.Valid)

	second := first.Add(time.Hour)
	require.NoError(t, store.Meters.ShiftReading(ctx, "M-1", MeterProjection{
		LastValue:  locked.CurrentReading,
		LastTime:   locked.CurrentReadingTime,
		Value:      decimal.NewFromInt(130),
		Time:       second,
		PhotoURL:   "http://photos/p.jpg",
		Difference: decimal.NewFromInt(30),
	}))

	got, err := store.Meters.GetByNumber(ctx, "M-1")
	require.NoError(t, err)
	assert.True(t, got.LastReading.Decimal.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.CurrentReading.Decimal.Equal(decimal.NewFromInt(130)))
	assert.True(t, got.Difference.Decimal.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "http://photos/p.jpg", got.PhotoURL)
	require.NotNil(t, got.CurrentReadingTime)
	assert.True(t, got.CurrentReadingTime.Equal(second))

	// rewriting the newest reading keeps the photo unless a new one is given
	require.NoError(t, store.Meters.SetCurrentReading(ctx, "M-1", decimal.NewFromInt(125), decimal.NewFromInt(25), ""))
	got, err = store.Meters.GetByNumber(ctx, "M-1")
	require.NoError(t, err)
	assert.True(t, got.CurrentReading.Decimal.Equal(decimal.NewFromInt(125)))
	assert.True(t, got.Difference.Decimal.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "http://photos/p.jpg", got.PhotoURL)

	require.NoError(t, store.Meters.SetCurrentReading(ctx, "M-1", decimal.NewFromInt(120), decimal.NewFromInt(20), "http://photos/q.jpg"))
	got, err = store.Meters.GetByNumber(ctx, "M-1")
	require.NoError(t, err)
	assert.True(t, got.Difference.Decimal.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "http://photos/q.jpg", got.PhotoURL)
}

func TestMeterRepository_UpdateAttributes(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()

	require.NoError(t, store.Meters.Create(ctx, &models.Meter{MeterNumber: "M-1", CampusID: 1}))

	n, err := store.Meters.UpdateAttributes(ctx, "M-1", MeterAttributes{
		MeterType: "digital", Brand: "1", DisplayUnit: "kWh", CTValue: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Meters.GetByNumber(ctx, "M-1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Brand)
	assert.Equal(t, "kWh", got.DisplayUnit)
	assert.Equal(t, "", got.CTValue)

	n, err = store.Meters.UpdateAttributes(ctx, "missing", MeterAttributes{MeterType: "mechanical"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := NewStore(testdb.New(t))
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Campuses.Create(ctx, &models.Campus{Name: "North"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	campuses, err := store.Campuses.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, campuses)
}
