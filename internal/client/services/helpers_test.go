package services

import (
	"bytes"
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/repositories/kv"
	"github.com/dmitrijs2005/fieldsales/internal/clock"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := kv.Open(context.Background(), kv.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func colombo(t *testing.T) *time.Location {
	t.Helper()
	return clock.Default().Location()
}

// fakeDayAPI records day notifications.
type fakeDayAPI struct {
	mu       sync.Mutex
	starts   []models.DayEvent
	ends     []models.DayEvent
	startErr error
	endErr   error
	delay    time.Duration
}

func (f *fakeDayAPI) DayStart(ctx context.Context, ev models.DayEvent) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, ev)
	return nil
}

func (f *fakeDayAPI) DayEnd(ctx context.Context, ev models.DayEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, ev)
	return f.endErr
}

func (f *fakeDayAPI) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts), len(f.ends)
}

type dayFixture struct {
	svc  DayCycleService
	api  *fakeDayAPI
	repo kv.Repository
	log  *bytes.Buffer
	now  time.Time
}

func newDayFixture(t *testing.T) *dayFixture {
	t.Helper()
	f := &dayFixture{
		api: &fakeDayAPI{},
		log: &bytes.Buffer{},
		now: time.Date(2025, 1, 10, 8, 0, 0, 0, colombo(t)),
	}
	f.repo = kv.SQLiteManager{}.Repo(newStore(t))
	clk := clock.Default().WithNow(func() time.Time { return f.now })
	f.svc = NewDayCycleService(f.api, f.repo, clk, logging.New(f.log, "debug", "json"))
	return f
}
