package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryPhotos struct {
	saved   map[string][]byte
	deleted []string
	n       int
}

func newMemoryPhotos() *memoryPhotos {
	return &memoryPhotos{saved: map[string][]byte{}}
}

func (m *memoryPhotos) Save(_ context.Context, data []byte) (string, error) {
	m.n++
	url := fmt.Sprintf("http://photos.test/uploads/photo-%d.jpg", m.n)
	m.saved[url] = data
	return url, nil
}

func (m *memoryPhotos) Delete(_ context.Context, url string) error {
	delete(m.saved, url)
	m.deleted = append(m.deleted, url)
	return nil
}

type ledgerFixture struct {
	db     *gorm.DB
	store  *repositories.Store
	photos *memoryPhotos
	svc    *LedgerService
	now    time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testdb.New(t)
	f := &ledgerFixture{
		db:     db,
		store:  repositories.NewStore(db),
		photos: newMemoryPhotos(),
		now:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewLedgerService(f.store, f.photos, 24*time.Hour)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *ledgerFixture) addMeter(t *testing.T, number string) {
	t.Helper()
	require.NoError(t, f.store.Meters.Create(context.Background(), &models.Meter{
		MeterNumber: number,
		CampusID:    1,
		Location:    "Library",
		MeterType:   "digital",
	}))
}

// appendAll appends the values one hour apart
func (f *ledgerFixture) appendAll(t *testing.T, meter string, values ...string) []*models.ReadingHistory {
	t.Helper()

	var records []*models.ReadingHistory
	for _, v := range values {
		f.now = f.now.Add(time.Hour)
		rec, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{
			MeterNumber: meter,
			Value:       dec(v),
		})
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func (f *ledgerFixture) history(t *testing.T, meter string) []*models.ReadingHistory {
	t.Helper()
	records, err := f.store.Readings.ListByMeter(context.Background(), meter)
	require.NoError(t, err)
	return records
}

func (f *ledgerFixture) meter(t *testing.T, number string) *models.Meter {
	t.Helper()
	m, err := f.store.Meters.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func differences(records []*models.ReadingHistory) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Difference.String()
	}
	return out
}

// assertChain checks every difference against the value before it
func assertChain(t *testing.T, records []*models.ReadingHistory) {
	t.Helper()
	prev := decimal.Zero
	for i, r := range records {
		assert.True(t, r.Difference.Equal(r.ReadingValue.Sub(prev)),
			"record %d: difference %s, value %s, previous %s", i, r.Difference, r.ReadingValue, prev)
		prev = r.ReadingValue
	}
}

var (
	dataManager = domain.Actor{UserID: 2, Username: "dm", Role: domain.RoleDataManager}
	reader      = domain.Actor{UserID: 3, Username: "reader", Role: domain.RoleReader}
	admin       = domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
)

func TestAppendReading_FirstReading(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")

	rec, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{
		MeterNumber: "M-1",
		Value:       dec("120.5"),
		Photo:       []byte("jpeg"),
	})
	require.NoError(t, err)

	assert.True(t, rec.Difference.Equal(dec("120.5")))
	assert.Equal(t, "digital", rec.MeterType)
	assert.NotEmpty(t, rec.PhotoURL)

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("120.5")))
	assert.True(t, m.Difference.Decimal.Equal(dec("120.5")))
	assert.False(t, m.LastReading.Valid)
	assert.Equal(t, rec.PhotoURL, m.PhotoURL)
	require.NotNil(t, m.CurrentReadingTime)
	assert.True(t, m.CurrentReadingTime.Equal(f.now))
}

func TestAppendReading_ShiftsProjection(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")

	records := f.appendAll(t, "M-1", "100", "130", "175")

	assert.Equal(t, []string{"100", "30", "45"}, differences(f.history(t, "M-1")))
	assertChain(t, f.history(t, "M-1"))

	m := f.meter(t, "M-1")
	assert.True(t, m.LastReading.Decimal.Equal(dec("130")))
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("175")))
	assert.True(t, m.Difference.Decimal.Equal(dec("45")))
	require.NotNil(t, m.LastReadingTime)
	assert.True(t, m.LastReadingTime.Equal(records[1].ReadingTime))
	assert.True(t, m.CurrentReadingTime.After(*m.LastReadingTime))
}

func TestAppendReading_UnknownMeter(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{
		MeterNumber: "missing",
		Value:       dec("1"),
		Photo:       []byte("jpeg"),
	})
	assert.ErrorIs(t, err, domain.ErrMeterNotFound)

	// The stored photo is removed again
	assert.Empty(t, f.photos.saved)
	assert.Len(t, f.photos.deleted, 1)
}

func TestAppendReading_RequiresMeterNumber(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{MeterNumber: "  ", Value: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_RejectsUnstorableValues(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100")

	_, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{
		MeterNumber: "M-1", Value: dec("100.1234"), Photo: []byte("photo"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReading)
	assert.Empty(t, f.photos.saved)

	_, err = f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1", ReadingID: records[0].ID, Value: dec("1000000000000"), Actor: dataManager,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReading)

	history := f.history(t, "M-1")
	require.Len(t, history, 1)
	assert.True(t, history[0].ReadingValue.Equal(dec("100")))
}

func TestCorrectReading_MiddleRecord(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150", "210", "260", "300")

	res, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[2].ID,
		Value:       dec("190"),
		Actor:       dataManager,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Recomputed)
	assert.False(t, res.CurrentReadingUpdated)
	assert.True(t, res.Record.Difference.Equal(dec("40")))

	history := f.history(t, "M-1")
	// Only the corrected record and its successor change
	assert.Equal(t, []string{"100", "50", "40", "70", "40"}, differences(history))
	assertChain(t, history)

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("300")))
	assert.True(t, m.LastReading.Decimal.Equal(dec("260")))
}

func TestCorrectReading_SecondNewestMovesLastReading(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150", "210")

	res, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[1].ID,
		Value:       dec("170"),
		Actor:       dataManager,
	})
	require.NoError(t, err)
	assert.False(t, res.CurrentReadingUpdated)

	history := f.history(t, "M-1")
	assert.Equal(t, []string{"100", "70", "40"}, differences(history))

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("210")))
	assert.True(t, m.LastReading.Decimal.Equal(dec("170")))
	assert.True(t, m.Difference.Decimal.Equal(history[2].Difference))
}

func TestCorrectReading_TailUpdatesCurrentReading(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150", "210")

	res, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[2].ID,
		Value:       dec("205.5"),
		Photo:       []byte("replacement"),
		Actor:       dataManager,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Recomputed)
	assert.True(t, res.CurrentReadingUpdated)

	assert.Equal(t, []string{"100", "50", "55.5"}, differences(f.history(t, "M-1")))

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("205.5")))
	assert.True(t, m.LastReading.Decimal.Equal(dec("150")))
	assert.True(t, m.Difference.Decimal.Equal(m.CurrentReading.Decimal.Sub(m.LastReading.Decimal)),
		"meter difference %s", m.Difference.Decimal)
	assert.Equal(t, res.Record.PhotoURL, m.PhotoURL)
	assert.Contains(t, f.photos.saved, m.PhotoURL)

	// The next append is taken against the corrected value
	f.appendAll(t, "M-1", "215.5")
	history := f.history(t, "M-1")
	assert.True(t, history[3].Difference.Equal(dec("10")))
	assertChain(t, history)
}

func TestCorrectReading_FirstRecord(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150")

	_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[0].ID,
		Value:       dec("90"),
		Actor:       dataManager,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"90", "60"}, differences(f.history(t, "M-1")))
}

func TestCorrectReading_OtherMetersUntouched(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	f.addMeter(t, "M-2")
	records := f.appendAll(t, "M-1", "100", "150")
	f.appendAll(t, "M-2", "10", "20", "30")

	_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[0].ID,
		Value:       dec("80"),
		Actor:       dataManager,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"10", "10", "10"}, differences(f.history(t, "M-2")))
}

func TestCorrectReading_RepeatedCorrectionsKeepChain(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "10", "25", "33", "47", "52", "70")

	corrections := []struct {
		idx   int
		value string
	}{
		{3, "40"},
		{0, "12"},
		{5, "75"},
		{2, "30"},
		{3, "44.25"},
	}
	for _, c := range corrections {
		_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
			MeterNumber: "M-1",
			ReadingID:   records[c.idx].ID,
			Value:       dec(c.value),
			Actor:       dataManager,
		})
		require.NoError(t, err)
		assertChain(t, f.history(t, "M-1"))
	}

	assert.True(t, f.meter(t, "M-1").CurrentReading.Decimal.Equal(dec("75")))
}

func TestCorrectReading_PhotoReplacement(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")

	rec, err := f.svc.AppendReading(context.Background(), &AppendReadingInput{
		MeterNumber: "M-1",
		Value:       dec("10"),
		Photo:       []byte("original"),
	})
	require.NoError(t, err)

	// No new photo keeps the stored one
	res, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1", ReadingID: rec.ID, Value: dec("11"), Actor: dataManager,
	})
	require.NoError(t, err)
	assert.Equal(t, rec.PhotoURL, res.Record.PhotoURL)

	res, err = f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1", ReadingID: rec.ID, Value: dec("12"), Photo: []byte("new"), Actor: dataManager,
	})
	require.NoError(t, err)
	assert.NotEqual(t, rec.PhotoURL, res.Record.PhotoURL)

	stored := f.history(t, "M-1")[0]
	assert.Equal(t, res.Record.PhotoURL, stored.PhotoURL)

	// a lone reading is also the meter's current one
	m := f.meter(t, "M-1")
	assert.False(t, m.LastReading.Valid)
	assert.True(t, m.Difference.Decimal.Equal(dec("12")))
	assert.Equal(t, res.Record.PhotoURL, m.PhotoURL)
}

// The test database runs on one pooled connection, so concurrent
// transactions queue for it and commit one after the other. These tests check
// that concurrent corrections leave a consistent ledger and never deadlock.
func correctConcurrently(t *testing.T, f *ledgerFixture, inputs []*CorrectReadingInput) {
	t.Helper()

	var wg sync.WaitGroup
	errs := make(chan error, len(inputs))
	for _, in := range inputs {
		wg.Add(1)
		go func(in *CorrectReadingInput) {
			defer wg.Done()
			_, err := f.svc.CorrectReading(context.Background(), in)
			errs <- err
		}(in)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent corrections did not finish")
	}

	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestCorrectReading_ConcurrentOnSameMeter(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150", "210", "260", "300", "340", "400", "450")

	var inputs []*CorrectReadingInput
	want := make([]decimal.Decimal, len(records))
	for i, rec := range records {
		want[i] = rec.ReadingValue.Add(dec("1.5"))
		inputs = append(inputs, &CorrectReadingInput{
			MeterNumber: "M-1",
			ReadingID:   rec.ID,
			Value:       want[i],
			Actor:       dataManager,
		})
	}

	correctConcurrently(t, f, inputs)

	history := f.history(t, "M-1")
	require.Len(t, history, len(records))
	for i, rec := range history {
		assert.True(t, rec.ReadingValue.Equal(want[i]), "record %d: %s", i, rec.ReadingValue)
	}
	assertChain(t, history)

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("451.5")))
	assert.True(t, m.LastReading.Decimal.Equal(dec("401.5")))
	assert.True(t, m.Difference.Decimal.Equal(dec("50")))
}

func TestCorrectReading_ConcurrentOnDifferentMeters(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	f.addMeter(t, "M-2")
	first := f.appendAll(t, "M-1", "100", "150", "210")
	second := f.appendAll(t, "M-2", "10", "20", "30")

	correctConcurrently(t, f, []*CorrectReadingInput{
		{MeterNumber: "M-1", ReadingID: first[0].ID, Value: dec("120"), Actor: dataManager},
		{MeterNumber: "M-2", ReadingID: second[1].ID, Value: dec("25"), Actor: dataManager},
		{MeterNumber: "M-1", ReadingID: first[2].ID, Value: dec("200"), Actor: dataManager},
		{MeterNumber: "M-2", ReadingID: second[0].ID, Value: dec("5"), Actor: dataManager},
	})

	m1 := f.history(t, "M-1")
	assert.Equal(t, []string{"120", "30", "50"}, differences(m1))
	assertChain(t, m1)

	m2 := f.history(t, "M-2")
	assert.Equal(t, []string{"5", "20", "5"}, differences(m2))
	assertChain(t, m2)
}

func TestCorrectReading_Authorization(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150")

	correct := func(actor domain.Actor, value string) error {
		_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
			MeterNumber: "M-1", ReadingID: records[0].ID, Value: dec(value), Actor: actor,
		})
		return err
	}

	assert.ErrorIs(t, correct(admin, "101"), domain.ErrCorrectionNotAllowed)

	// Within the window a reader may correct
	f.now = records[0].ReadingTime.Add(23 * time.Hour)
	assert.NoError(t, correct(reader, "101"))

	f.now = records[0].ReadingTime.Add(25 * time.Hour)
	assert.ErrorIs(t, correct(reader, "102"), domain.ErrEditWindowExpired)
	assert.Equal(t, []string{"101", "49"}, differences(f.history(t, "M-1")))

	// Data managers are not bound by the window
	assert.NoError(t, correct(dataManager, "102"))
}

func TestCorrectReading_NotFound(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	f.addMeter(t, "M-2")
	f.appendAll(t, "M-1", "100")
	other := f.appendAll(t, "M-2", "5")

	_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1", ReadingID: 9999, Value: dec("1"), Actor: dataManager,
	})
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)

	// A record of another meter is treated as absent
	_, err = f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1", ReadingID: other[0].ID, Value: dec("1"), Actor: dataManager,
	})
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)
	assert.Equal(t, []string{"5"}, differences(f.history(t, "M-2")))

	_, err = f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "missing", ReadingID: other[0].ID, Value: dec("1"), Actor: dataManager,
	})
	assert.ErrorIs(t, err, domain.ErrMeterNotFound)
}

func failUpdatesOf(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)
}

func TestCorrectReading_RollsBackOnFailure(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	records := f.appendAll(t, "M-1", "100", "150", "210")

	failUpdatesOf(t, f.db, "meters")

	_, err := f.svc.CorrectReading(context.Background(), &CorrectReadingInput{
		MeterNumber: "M-1",
		ReadingID:   records[2].ID,
		Value:       dec("200"),
		Photo:       []byte("jpeg"),
		Actor:       dataManager,
	})
	require.Error(t, err)

	history := f.history(t, "M-1")
	assert.Equal(t, []string{"100", "50", "60"}, differences(history))
	assert.True(t, history[2].ReadingValue.Equal(dec("210")))
	assert.Empty(t, f.photos.saved)
}

func TestAppendReading_RollsBackOnFailure(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")
	f.appendAll(t, "M-1", "100")

	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_history", func(tx *gorm.DB) {
		if tx.Statement.Table == "meter_readings_history" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)

	_, err = f.svc.AppendReading(context.Background(), &AppendReadingInput{MeterNumber: "M-1", Value: dec("130")})
	require.Error(t, err)

	m := f.meter(t, "M-1")
	assert.True(t, m.CurrentReading.Decimal.Equal(dec("100")))
	assert.False(t, m.LastReading.Valid)
	assert.Len(t, f.history(t, "M-1"), 1)
}

func TestHistory_LatestTenNewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	f.addMeter(t, "M-1")

	values := make([]string, 12)
	for i := range values {
		values[i] = fmt.Sprintf("%d", (i+1)*10)
	}
	f.appendAll(t, "M-1", values...)

	history, err := f.svc.History(context.Background(), "M-1")
	require.NoError(t, err)
	require.Len(t, history, HistoryLimit)
	assert.True(t, history[0].ReadingValue.Equal(dec("120")))
	assert.True(t, history[9].ReadingValue.Equal(dec("30")))

	history, err = f.svc.History(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)
}
