package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

// autoCloseTimeout bounds the end-of-day call made from the timer goroutine.
const autoCloseTimeout = 30 * time.Second

type stopper interface {
	Stop() bool
}

// afterFunc is a seam for tests.
var afterFunc = func(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// AutoCloser ends an open day at the end of the business day. It keeps at
// most one pending timer.
type AutoCloser struct {
	days DayCycleService
	log  logging.Logger

	// OnClose, if set, is called after every automatic close attempt.
	OnClose func(userID int64, tr Transition, err error)

	mu    sync.Mutex
	timer stopper
	gen   uint64
}

func NewAutoCloser(days DayCycleService, log logging.Logger) *AutoCloser {
	if log == nil {
		log = logging.Discard()
	}
	return &AutoCloser{days: days, log: log}
}

// Reschedule cancels any pending close and, when status is in-progress,
// arms a new one for the end of the business day.
func (a *AutoCloser) Reschedule(userID int64, status models.DayStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	if status != models.DayInProgress {
		return
	}

	d := time.Duration(a.days.MsUntilEndOfDay()) * time.Millisecond
	a.gen++
	gen := a.gen
	a.timer = afterFunc(d, func() { a.fire(userID, gen) })
	a.log.Debug(context.Background(), "auto close scheduled", "user_id", userID, "in", d.String())
}

// Stop cancels the pending close, if any.
func (a *AutoCloser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *AutoCloser) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// close ends the open day. A timer that fires after midnight finds a stale
// record; Load has then already sent the day end, which counts as the close.
func (a *AutoCloser) close(ctx context.Context, userID int64) (Transition, error) {
	cur, err := a.days.Load(ctx, userID)
	if err != nil {
		return Transition{}, err
	}
	if cur.AutoEnded {
		return Transition{Kind: Transitioned}, nil
	}

	gps := false
	return a.days.End(ctx, userID, DayActionOptions{GPSStatus: &gps})
}

func (a *AutoCloser) fire(userID int64, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), autoCloseTimeout)
	defer cancel()

	tr, err := a.close(ctx, userID)
	if err != nil {
		a.log.Warn(ctx, "auto close failed", "user_id", userID, "error", err)
	} else {
		a.log.Info(ctx, "day auto-closed", "user_id", userID, "kind", tr.Kind.String())
	}

	a.mu.Lock()
	if a.gen == gen {
		a.timer = nil
	}
	a.mu.Unlock()

	if a.OnClose != nil {
		a.OnClose(userID, tr, err)
	}
}
