// Package views holds the reactive derivation layer: a single selected day
// plus the summary views bound to it. Views are recomputed whenever the
// selection changes or the store reports a write inside the relevant
// window, and consumers only ever observe whole snapshots.
package views

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

// State classifies a snapshot for consumers. An empty day is StateReady
// with no records; StateError carries the failed query's error.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is one consistent evaluation of every derived view for a day.
// CategoryTotals is derived from the same record set as Expenses, so the
// two can never disagree.
type Snapshot struct {
	Day            int64
	State          State
	Err            error
	Expenses       []core.Expense
	Total          core.Money
	CategoryTotals map[string]core.Money
	Rolling        []aggregate.DayPoint
}

// Subscription is a live range watch on the store.
type Subscription interface {
	C() <-chan struct{}
	Close()
}

// Store is the slice of the expense store the controller reads through.
type Store interface {
	QueryRange(ctx context.Context, start, end int64) ([]core.Expense, error)
	Watch(start, end int64) Subscription
}

// Controller owns the selected day and keeps the derived views bound to
// it. There is a single writer of the selection; concurrent readers get
// the latest published snapshot.
type Controller struct {
	store Store

	mu      sync.Mutex
	day     int64
	gen     uint64
	cancel  context.CancelFunc
	snap    Snapshot
	subs    map[uint64]chan Snapshot
	nextSub uint64
	closed  bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewController binds the views to the day containing nowMillis(), which
// defaults to the current wall clock.
func NewController(store Store, nowMillis func() int64) *Controller {
	if nowMillis == nil {
		nowMillis = func() int64 { return time.Now().UnixMilli() }
	}

	c := &Controller{
		store: store,
		subs:  make(map[uint64]chan Snapshot),
	}
	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())

	c.mu.Lock()
	c.rebindLocked(timewin.DayStart(nowMillis()))
	c.mu.Unlock()
	return c
}

// SelectedDay returns the day bucket the views are currently bound to.
func (c *Controller) SelectedDay() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Current returns the latest published snapshot.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// SetDate moves the selection to the day containing ts. Selecting the
// already-selected day is a no-op, so scrubbing back and forth never
// recomputes redundantly. Replacing the binding is asynchronous: the old
// day's in-flight query keeps running but its result is discarded.
func (c *Controller) SetDate(ts int64) {
	day := timewin.DayStart(ts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || day == c.day {
		return
	}
	c.rebindLocked(day)
}

// Subscribe registers a consumer of snapshot updates. The channel holds
// the latest snapshot only; a consumer that falls behind sees the newest
// state, not every intermediate one. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- c.snap
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close cancels the active binding and drops all subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.baseCancel()
	for id := range c.subs {
		delete(c.subs, id)
	}
}

// rebindLocked supersedes the current binding and starts one for day.
// The generation counter is the switch-latest guard: a publish from an
// older generation is dropped, whatever order results arrive in.
func (c *Controller) rebindLocked(day int64) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel
	c.day = day
	c.snap = Snapshot{Day: day, State: StateLoading}
	c.broadcastLocked()

	go c.bind(ctx, c.gen, day)
}

// bind is the per-selection loop: evaluate, publish, wait for a store
// change, repeat. One watch on the 7-day window covers every view, since
// the selected day is its newest bucket.
func (c *Controller) bind(ctx context.Context, gen uint64, day int64) {
	start, end := timewin.Last7Window(day)
	sub := c.store.Watch(start, end)
	defer sub.Close()

	for {
		snap := c.evaluate(ctx, day)
		if !c.publish(gen, snap) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-sub.C():
		}
	}
}

// evaluate runs the window queries and derives every view from their
// results. Aggregation is pure and cheap, so it runs inline.
func (c *Controller) evaluate(ctx context.Context, day int64) Snapshot {
	weekStart, weekEnd := timewin.Last7Window(day)
	week, err := c.store.QueryRange(ctx, weekStart, weekEnd)
	if err != nil {
		return Snapshot{Day: day, State: StateError, Err: err}
	}

	// The selected day's records are the week's records inside the day
	// window; one query keeps all views consistent with each other.
	dayStart, dayEnd := timewin.DayWindow(day)
	var dayRecords []core.Expense
	for _, r := range week {
		if r.Date >= dayStart && r.Date <= dayEnd {
			dayRecords = append(dayRecords, r)
		}
	}

	return Snapshot{
		Day:            day,
		State:          StateReady,
		Expenses:       dayRecords,
		Total:          aggregate.DayTotal(dayRecords),
		CategoryTotals: aggregate.CategoryTotals(dayRecords),
		Rolling:        aggregate.RollingSeries(week, day),
	}
}

// publish installs snap as the current snapshot unless its generation has
// been superseded or the controller closed. Reports whether the binding
// should keep running.
func (c *Controller) publish(gen uint64, snap Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		slog.Debug("Discarding superseded view refresh", "day", snap.Day, "generation", gen)
		return false
	}
	c.snap = snap
	c.broadcastLocked()
	return true
}

func (c *Controller) broadcastLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.snap:
		default:
			// Replace the stale pending snapshot with the newest one
			select {
			case <-ch:
			default:
			}
			ch <- c.snap
		}
	}
}
