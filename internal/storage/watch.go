package storage

import "spendlog/internal/timewin"

// Watcher signals committed inserts whose day bucket falls inside its
// range. The channel is buffered and coalescing: pending signals collapse
// into one, and the store never blocks on a slow consumer. A signal means
// "re-read the range", not "here is the record".
type Watcher struct {
	repo       *SQLiteRepository
	start, end int64
	ch         chan struct{}
}

// Watch registers a change watcher for the inclusive range [start, end].
// The caller owns the watcher and must Close it when done.
func (r *SQLiteRepository) Watch(start, end int64) *Watcher {
	w := &Watcher{
		repo:  r,
		start: start,
		end:   end,
		ch:    make(chan struct{}, 1),
	}

	r.mu.Lock()
	if !r.closed {
		r.watchers[w] = struct{}{}
	}
	r.mu.Unlock()

	return w
}

// C returns the signal channel. It never closes; select against a done
// channel or context to stop waiting.
func (w *Watcher) C() <-chan struct{} {
	return w.ch
}

// Close unregisters the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	w.repo.mu.Lock()
	delete(w.repo.watchers, w)
	w.repo.mu.Unlock()
}

// notifyInsert wakes every watcher whose range contains the record's day
// bucket. Called after the insert has committed, so a woken reader always
// sees the new row.
func (r *SQLiteRepository) notifyInsert(date int64) {
	day := timewin.DayStart(date)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for w := range r.watchers {
		if day < w.start || day > w.end {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default: // a signal is already pending; coalesce
		}
	}
}
