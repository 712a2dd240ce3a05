package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"wagevo/internal/platform/kv"
)

// Store is the shift clock of one worker. Mutations are serialized; reads go
// straight to storage so every call observes the latest persisted state.
type Store struct {
	DB      kv.Store
	OwnerID string
	Events  *Notifier
	Clock   func() time.Time
	NewID   func() string

	mu sync.Mutex
}

func NewStore(db kv.Store, ownerID string, events *Notifier) *Store {
	if events == nil {
		events = NewNotifier()
	}
	return &Store{
		DB:      db,
		OwnerID: ownerID,
		Events:  events,
		Clock:   time.Now,
		NewID:   uuid.NewString,
	}
}

// ClockIn starts a shift at now and returns its id.
func (s *Store) ClockIn(ctx context.Context, now time.Time) (string, error) {
	s.mu.Lock()
	started, err := s.clockIn(ctx, now)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	s.publish(EventShiftStarted, started.ID)
	return started.ID, nil
}

func (s *Store) clockIn(ctx context.Context, now time.Time) (Shift, error) {
	var pending []kv.Mutation
	_, active, err := s.activeForWrite(ctx, &pending)
	if err != nil {
		return Shift{}, err
	}
	if active {
		return Shift{}, ErrAlreadyClockedIn
	}

	started := Shift{
		ID:        s.newID(),
		StartTime: now,
		EndTime:   now,
		OwnerID:   s.OwnerID,
	}
	data, err := encodeShift(started)
	if err != nil {
		return Shift{}, fmt.Errorf("encode active shift: %w", err)
	}
	pending = append(pending,
		kv.Put(s.key(KeyShiftStartTime), encodeStartTime(now)),
		kv.Put(s.key(KeyCurrentShift), data),
	)
	if err := s.DB.Batch(ctx, pending); err != nil {
		return Shift{}, fmt.Errorf("persist active shift: %w", err)
	}
	return started, nil
}

// ClockOut closes the active shift at now, appends it to the history and
// clears the active marker in a single batch.
func (s *Store) ClockOut(ctx context.Context, now time.Time) (Shift, error) {
	s.mu.Lock()
	closed, err := s.clockOut(ctx, now)
	s.mu.Unlock()
	if err != nil {
		return Shift{}, err
	}
	s.publish(EventShiftsChanged, closed.ID)
	return closed, nil
}

func (s *Store) clockOut(ctx context.Context, now time.Time) (Shift, error) {
	var pending []kv.Mutation
	closed, active, err := s.activeForWrite(ctx, &pending)
	if err != nil {
		return Shift{}, err
	}
	if !active {
		return Shift{}, ErrNoActiveShift
	}
	history, err := collectionForWrite(ctx, s, KeySavedShifts, decodeShifts, &pending)
	if err != nil {
		return Shift{}, err
	}

	if now.Before(closed.StartTime) {
		now = closed.StartTime
	}
	closed.EndTime = now
	closed.Duration = now.Sub(closed.StartTime).Seconds()

	replaced := false
	for i := range history {
		if history[i].ID == closed.ID {
			history[i] = closed
			replaced = true
		}
	}
	if !replaced {
		history = append(history, closed)
	}

	data, err := encodeShifts(history)
	if err != nil {
		return Shift{}, fmt.Errorf("encode shifts: %w", err)
	}
	pending = append(pending,
		kv.Put(s.key(KeySavedShifts), data),
		kv.Remove(s.key(KeyShiftStartTime)),
		kv.Remove(s.key(KeyCurrentShift)),
	)
	if err := s.DB.Batch(ctx, pending); err != nil {
		return Shift{}, fmt.Errorf("persist closed shift: %w", err)
	}
	return closed, nil
}

// ListShifts returns every closed shift in stored order. A history that can
// no longer be decoded yields an empty slice together with a *CorruptError.
func (s *Store) ListShifts(ctx context.Context) ([]Shift, error) {
	shifts, _, err := readCollection(ctx, s, KeySavedShifts, decodeShifts)
	return shifts, err
}

// DeleteShift removes the shift with the given id. Unknown ids are ignored.
func (s *Store) DeleteShift(ctx context.Context, id string) error {
	s.mu.Lock()
	removed, err := s.deleteShift(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if removed {
		s.publish(EventShiftsChanged, id)
	}
	return nil
}

func (s *Store) deleteShift(ctx context.Context, id string) (bool, error) {
	var pending []kv.Mutation
	history, err := collectionForWrite(ctx, s, KeySavedShifts, decodeShifts, &pending)
	if err != nil {
		return false, err
	}

	kept := make([]Shift, 0, len(history))
	for _, sh := range history {
		if sh.ID != id {
			kept = append(kept, sh)
		}
	}
	removed := len(kept) != len(history)
	if !removed && len(pending) == 0 {
		return false, nil
	}

	data, err := encodeShifts(kept)
	if err != nil {
		return false, fmt.Errorf("encode shifts: %w", err)
	}
	pending = append(pending, kv.Put(s.key(KeySavedShifts), data))
	if err := s.DB.Batch(ctx, pending); err != nil {
		return false, fmt.Errorf("persist shifts: %w", err)
	}
	return removed, nil
}

// ActiveShift reports the in-progress shift, if any, with elapsed time
// computed as now minus its start time.
func (s *Store) ActiveShift(ctx context.Context, now time.Time) (ActiveShift, bool, error) {
	current, ok, corrupt, err := s.readActive(ctx)
	if err != nil {
		return ActiveShift{}, false, err
	}
	if !ok {
		if len(corrupt) > 0 {
			return ActiveShift{}, false, corrupt[0].err()
		}
		return ActiveShift{}, false, nil
	}
	elapsed := now.Sub(current.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	return ActiveShift{Shift: current, Elapsed: elapsed}, true, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]Expense, error) {
	expenses, _, err := readCollection(ctx, s, KeySavedExpenses, decodeExpenses)
	return expenses, err
}

// AddExpense validates and appends an expense. A missing id or date is filled
// in; the stored record is returned.
func (s *Store) AddExpense(ctx context.Context, expense Expense) (Expense, error) {
	if expense.Amount < 0 || math.IsNaN(expense.Amount) || math.IsInf(expense.Amount, 0) {
		return Expense{}, fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidExpense)
	}
	if expense.ID == "" {
		expense.ID = s.newID()
	}
	if expense.Date.IsZero() {
		expense.Date = s.now()
	}

	s.mu.Lock()
	err := s.addExpense(ctx, expense)
	s.mu.Unlock()
	if err != nil {
		return Expense{}, err
	}
	s.publish(EventExpenseUpdated, "")
	return expense, nil
}

func (s *Store) addExpense(ctx context.Context, expense Expense) error {
	var pending []kv.Mutation
	expenses, err := collectionForWrite(ctx, s, KeySavedExpenses, decodeExpenses, &pending)
	if err != nil {
		return err
	}
	expenses = append(expenses, expense)
	data, err := encodeExpenses(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	pending = append(pending, kv.Put(s.key(KeySavedExpenses), data))
	if err := s.DB.Batch(ctx, pending); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}
	return nil
}

// Subscribe registers fn for events of this worker only.
func (s *Store) Subscribe(fn func(Event)) func() {
	owner := s.OwnerID
	return s.Events.Subscribe(func(evt Event) {
		if evt.OwnerID == owner {
			fn(evt)
		}
	})
}

func (s *Store) publish(t EventType, shiftID string) {
	s.Events.Publish(Event{Type: t, OwnerID: s.OwnerID, ShiftID: shiftID, At: s.now()})
}

func (s *Store) key(name string) string {
	if s.OwnerID == "" {
		return name
	}
	return url.PathEscape(s.OwnerID) + "/" + name
}

func (s *Store) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *Store) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.DB.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, true, nil
}

type corruptValue struct {
	key   string
	raw   []byte
	cause error
}

func (c corruptValue) err() error {
	return &CorruptError{Key: c.key, Err: c.cause}
}

func (s *Store) quarantine(c corruptValue) kv.Mutation {
	target := c.key + quarantineInfix + strconv.FormatInt(s.now().UnixNano(), 10)
	slog.Warn("quarantining corrupt shift data", "key", c.key, "quarantineKey", target, "err", c.cause)
	return kv.Put(target, c.raw)
}

func readCollection[T any](ctx context.Context, s *Store, name string, decode func([]byte) ([]T, error)) ([]T, *corruptValue, error) {
	key := s.key(name)
	raw, ok, err := s.read(ctx, key)
	if err != nil {
		return []T{}, nil, err
	}
	if !ok {
		return []T{}, nil, nil
	}
	items, err := decode(raw)
	if err != nil {
		c := corruptValue{key: key, raw: raw, cause: err}
		return []T{}, &c, c.err()
	}
	return items, nil, nil
}

// collectionForWrite loads a collection for mutation. An undecodable value is
// copied aside and the mutation continues on an empty collection.
func collectionForWrite[T any](ctx context.Context, s *Store, name string, decode func([]byte) ([]T, error), pending *[]kv.Mutation) ([]T, error) {
	items, corrupt, err := readCollection(ctx, s, name, decode)
	if corrupt != nil {
		*pending = append(*pending, s.quarantine(*corrupt))
		return []T{}, nil
	}
	return items, err
}

// readActive resolves the in-progress shift. When the shift record is
// unreadable but the start marker survives, the shift is rebuilt from the
// marker under a deterministic id.
func (s *Store) readActive(ctx context.Context) (Shift, bool, []corruptValue, error) {
	curKey := s.key(KeyCurrentShift)
	startKey := s.key(KeyShiftStartTime)

	rawCur, hasCur, err := s.read(ctx, curKey)
	if err != nil {
		return Shift{}, false, nil, err
	}
	rawStart, hasStart, err := s.read(ctx, startKey)
	if err != nil {
		return Shift{}, false, nil, err
	}

	var corrupt []corruptValue
	if hasCur {
		current, derr := decodeShift(rawCur)
		if derr == nil {
			if current.OwnerID == "" {
				current.OwnerID = s.OwnerID
			}
			return current, true, nil, nil
		}
		corrupt = append(corrupt, corruptValue{key: curKey, raw: rawCur, cause: derr})
	}
	if hasStart {
		start, derr := decodeStartTime(rawStart)
		if derr == nil {
			if hasCur {
				slog.Warn("rebuilding active shift from start marker", "owner", s.OwnerID, "startTime", start)
			}
			return Shift{
				ID:        recoveredID(s.OwnerID, start),
				StartTime: start,
				EndTime:   start,
				OwnerID:   s.OwnerID,
			}, true, corrupt, nil
		}
		corrupt = append(corrupt, corruptValue{key: startKey, raw: rawStart, cause: derr})
	}
	return Shift{}, false, corrupt, nil
}

func (s *Store) activeForWrite(ctx context.Context, pending *[]kv.Mutation) (Shift, bool, error) {
	current, ok, corrupt, err := s.readActive(ctx)
	if err != nil {
		return Shift{}, false, err
	}
	for _, c := range corrupt {
		*pending = append(*pending, s.quarantine(c))
	}
	if !ok && len(corrupt) > 0 {
		for _, c := range corrupt {
			*pending = append(*pending, kv.Remove(c.key))
		}
	}
	return current, ok, nil
}

func recoveredID(owner string, start time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(owner+"|"+start.UTC().Format(time.RFC3339Nano))).String()
}
