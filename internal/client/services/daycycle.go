package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/repositories/kv"
	"github.com/dmitrijs2005/fieldsales/internal/clock"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

// DayWindow is the longest a started day can stay open, measured from its
// start time.
const DayWindow = 24 * time.Hour

var (
	ErrInvalidTransition = errors.New("invalid day transition")
	ErrAlreadyCompleted  = fmt.Errorf("%w: day already completed", ErrInvalidTransition)
	ErrNotStarted        = fmt.Errorf("%w: start your day before ending it", ErrInvalidTransition)
	ErrWindowExpired     = errors.New("day window expired, start a new day")
)

// TransitionKind tells a real state change apart from an idempotent no-op.
type TransitionKind int

const (
	Unchanged TransitionKind = iota
	Transitioned
)

func (k TransitionKind) String() string {
	if k == Transitioned {
		return "transitioned"
	}
	return "unchanged"
}

type Transition struct {
	Kind  TransitionKind
	State *models.DayCycleState
}

// LoadResult is the current day of a user. State is nil when the day has not
// started. AutoEnded is set when an open record from an earlier day was closed
// during the load.
type LoadResult struct {
	State     *models.DayCycleState
	AutoEnded bool
}

// DayActionOptions carries the display-only GPS fields sent with start/end,
// plus the overrides End uses when the record is rebuilt from a remote summary.
type DayActionOptions struct {
	Latitude  float64
	Longitude float64
	GPSStatus *bool

	StartTimeOverride *time.Time
	DateOverride      string
}

// DayNotifier is the remote side of the day cycle.
type DayNotifier interface {
	DayStart(ctx context.Context, ev models.DayEvent) error
	DayEnd(ctx context.Context, ev models.DayEvent) error
}

// DayCycleService owns the NOT_STARTED -> IN_PROGRESS -> COMPLETED machine of
// each user's business day.
//
// Contract:
//   - Load: current record; stale records (other business date) are removed,
//     open ones after a best-effort remote day end.
//   - Start: idempotent; the remote start must succeed before anything is
//     persisted.
//   - End: idempotent; fails with ErrNotStarted or ErrWindowExpired.
//   - Clear: unconditional removal.
//   - MsUntilEndOfDay: time left in the business day.
//
// Calls for the same user are serialized.
type DayCycleService interface {
	Load(ctx context.Context, userID int64) (LoadResult, error)
	Start(ctx context.Context, userID int64, opts DayActionOptions) (Transition, error)
	End(ctx context.Context, userID int64, opts DayActionOptions) (Transition, error)
	Clear(ctx context.Context, userID int64) error
	MsUntilEndOfDay() int64
}

type dayCycleService struct {
	api   DayNotifier
	store kv.Repository
	clock *clock.Clock
	log   logging.Logger

	locks sync.Map // int64 -> *sync.Mutex
}

func NewDayCycleService(api DayNotifier, store kv.Repository, clk *clock.Clock, log logging.Logger) DayCycleService {
	if clk == nil {
		clk = clock.Default()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &dayCycleService{api: api, store: store, clock: clk, log: log}
}

func DayCycleKey(userID int64) string {
	return "@dayCycle:" + strconv.FormatInt(userID, 10)
}

func (s *dayCycleService) lock(userID int64) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *dayCycleService) Load(ctx context.Context, userID int64) (LoadResult, error) {
	defer s.lock(userID)()
	return s.load(ctx, userID)
}

func (s *dayCycleService) load(ctx context.Context, userID int64) (LoadResult, error) {
	key := DayCycleKey(userID)

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return LoadResult{}, err
	}
	if raw == nil {
		return LoadResult{}, nil
	}

	var state models.DayCycleState
	if err := json.Unmarshal(raw, &state); err != nil || state.Date == "" || state.StartTime == nil {
		s.log.Debug(ctx, "discarding unreadable day record", "user_id", userID)
		return LoadResult{}, s.store.Delete(ctx, key)
	}

	if s.clock.IsToday(state.Date) {
		return LoadResult{State: &state}, nil
	}

	staleOpen := state.Status() == models.DayInProgress
	if staleOpen {
		ev := dayEvent(userID, DayActionOptions{}, false)
		if err := s.api.DayEnd(ctx, ev); err != nil {
			s.log.Warn(ctx, "stale day auto-end failed", "user_id", userID, "date", state.Date, "error", err)
		} else {
			s.log.Info(ctx, "stale day auto-ended", "user_id", userID, "date", state.Date)
		}
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{AutoEnded: staleOpen}, nil
}

func (s *dayCycleService) Start(ctx context.Context, userID int64, opts DayActionOptions) (Transition, error) {
	defer s.lock(userID)()

	cur, err := s.load(ctx, userID)
	if err != nil {
		return Transition{}, err
	}

	switch cur.State.Status() {
	case models.DayInProgress:
		return Transition{Kind: Unchanged, State: cur.State}, nil
	case models.DayCompleted:
		return Transition{}, ErrAlreadyCompleted
	}

	if err := s.api.DayStart(ctx, dayEvent(userID, opts, true)); err != nil {
		return Transition{}, fmt.Errorf("day start: %w", err)
	}

	now := s.clock.Now()
	state := &models.DayCycleState{
		Date:      now.Format(clock.DateLayout),
		StartTime: &now,
	}
	if err := s.persist(ctx, userID, state); err != nil {
		return Transition{}, err
	}
	s.log.Info(ctx, "day started", "user_id", userID, "date", state.Date)
	return Transition{Kind: Transitioned, State: state}, nil
}

func (s *dayCycleService) End(ctx context.Context, userID int64, opts DayActionOptions) (Transition, error) {
	defer s.lock(userID)()

	cur, err := s.load(ctx, userID)
	if err != nil {
		return Transition{}, err
	}

	state := cur.State
	if state == nil && opts.StartTimeOverride != nil {
		date := opts.DateOverride
		if date == "" {
			date = s.clock.Today()
		}
		start := opts.StartTimeOverride.In(s.clock.Location())
		state = &models.DayCycleState{Date: date, StartTime: &start}
	}

	switch state.Status() {
	case models.DayNotStarted:
		return Transition{}, ErrNotStarted
	case models.DayCompleted:
		return Transition{Kind: Unchanged, State: state}, nil
	}

	if s.clock.Now().Sub(*state.StartTime) > DayWindow {
		if err := s.store.Delete(ctx, DayCycleKey(userID)); err != nil {
			return Transition{}, err
		}
		return Transition{}, ErrWindowExpired
	}

	if err := s.api.DayEnd(ctx, dayEvent(userID, opts, false)); err != nil {
		return Transition{}, fmt.Errorf("day end: %w", err)
	}

	end := s.clock.Now()
	updated := &models.DayCycleState{Date: state.Date, StartTime: state.StartTime, EndTime: &end}
	if err := s.persist(ctx, userID, updated); err != nil {
		return Transition{}, err
	}
	s.log.Info(ctx, "day ended", "user_id", userID, "date", updated.Date)
	return Transition{Kind: Transitioned, State: updated}, nil
}

func (s *dayCycleService) Clear(ctx context.Context, userID int64) error {
	defer s.lock(userID)()
	return s.store.Delete(ctx, DayCycleKey(userID))
}

func (s *dayCycleService) MsUntilEndOfDay() int64 {
	return s.clock.MsUntilEndOfDay()
}

func (s *dayCycleService) persist(ctx context.Context, userID int64, state *models.DayCycleState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, DayCycleKey(userID), b)
}

// dayEvent builds the notification body. GPS status defaults to true on
// check-in and false on check-out.
func dayEvent(userID int64, opts DayActionOptions, checkIn bool) models.DayEvent {
	gps := checkIn
	if opts.GPSStatus != nil {
		gps = *opts.GPSStatus
	}
	return models.DayEvent{
		UserID:     userID,
		GPSStatus:  strconv.FormatBool(gps),
		Latitude:   opts.Latitude,
		Longitude:  opts.Longitude,
		IsCheckIn:  checkIn,
		IsCheckOut: !checkIn,
	}
}
