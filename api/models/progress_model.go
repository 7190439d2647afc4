package models

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/video-splitter-go/types"
)

const DefaultProgressTTL = 30 * time.Minute

// MaxUnfinishedProgress is the highest value a job reads before Complete,
// so two decimal replies never show 100 for a running or failed job.
const MaxUnfinishedProgress = 99.99

// ProgressObserver is called after every change of a progress entry, outside the tracker lock.
type ProgressObserver func(types.JobProgress)

type progressEntry struct {
	progress float64
	status   types.JobStatus
}

// ProgressTracker maps job keys to completion percentage and status.
// Entries expire after the configured TTL; an expired or removed key reads as 0.
type ProgressTracker struct {
	mu       sync.RWMutex
	entries  *ttlworker.Cache[string, *progressEntry]
	running  map[string]struct{}
	observer ProgressObserver
}

func NewProgressTracker(ttl time.Duration) *ProgressTracker {
	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}
	return &ProgressTracker{
		entries: ttlworker.NewCache[string, *progressEntry](ttl),
		running: make(map[string]struct{}),
	}
}

// SetObserver installs fn as the change observer. Pass nil to detach.
func (t *ProgressTracker) SetObserver(fn ProgressObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observer = fn
}

// Begin registers key as running at 0. It fails with ErrJobInFlight while key is already running.
func (t *ProgressTracker) Begin(key string) error {
	t.mu.Lock()
	if _, ok := t.running[key]; ok {
		if entry := t.entries.Get(key); entry != nil && entry.status == types.JobStatusRunning {
			t.mu.Unlock()
			return types.ConflictError("begin_job", types.ErrJobInFlight)
		}
	}
	entry := &progressEntry{status: types.JobStatusRunning}
	t.entries.Set(key, entry)
	t.running[key] = struct{}{}
	snap, observer := t.snapshotLocked(key, entry)
	t.mu.Unlock()

	notify(observer, snap)
	return nil
}

// Set records pct for a running key, clamped to [0,MaxUnfinishedProgress]. Lower values than the
// current one are ignored. It returns false when key is not running.
func (t *ProgressTracker) Set(key string, pct float64) bool {
	pct = min(clampPercent(pct), MaxUnfinishedProgress)

	t.mu.Lock()
	entry := t.entries.Get(key)
	if entry == nil || entry.status != types.JobStatusRunning {
		t.mu.Unlock()
		return false
	}
	if pct <= entry.progress {
		t.mu.Unlock()
		return true
	}
	entry.progress = pct
	snap, observer := t.snapshotLocked(key, entry)
	t.mu.Unlock()

	notify(observer, snap)
	return true
}

// Reporter returns a ProgressReporter bound to key, for handing to a splitter.
func (t *ProgressTracker) Reporter(key string) types.ProgressReporter {
	return func(pct float64) {
		t.Set(key, pct)
	}
}

// Complete sets key to exactly 100 with status completed.
func (t *ProgressTracker) Complete(key string) {
	t.finish(key, types.JobStatusCompleted)
}

// Fail marks key failed, keeping its last value. A failed job never reads 100.
func (t *ProgressTracker) Fail(key string) {
	t.finish(key, types.JobStatusFailed)
}

func (t *ProgressTracker) finish(key string, status types.JobStatus) {
	t.mu.Lock()
	entry := t.entries.Get(key)
	if entry == nil {
		entry = &progressEntry{}
	}
	entry.status = status
	switch status {
	case types.JobStatusCompleted:
		entry.progress = 100
	case types.JobStatusFailed:
		entry.progress = min(entry.progress, MaxUnfinishedProgress)
	}
	t.entries.Set(key, entry)
	delete(t.running, key)
	snap, observer := t.snapshotLocked(key, entry)
	t.mu.Unlock()

	notify(observer, snap)
}

// Get returns the entry for key. Unknown keys read as 0 and pending, never an error.
func (t *ProgressTracker) Get(key string) types.JobProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry := t.entries.Get(key)
	if entry == nil {
		return types.JobProgress{Key: key, Status: types.JobStatusPending}
	}
	return types.JobProgress{Key: key, Progress: entry.progress, Status: entry.status}
}

func (t *ProgressTracker) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries.Delete(key)
	delete(t.running, key)
}

// ActiveJobs returns the number of jobs currently running.
func (t *ProgressTracker) ActiveJobs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for key := range t.running {
		if entry := t.entries.Get(key); entry != nil && entry.status == types.JobStatusRunning {
			count++
		}
	}
	return count
}

func (t *ProgressTracker) snapshotLocked(key string, entry *progressEntry) (types.JobProgress, ProgressObserver) {
	return types.JobProgress{Key: key, Progress: entry.progress, Status: entry.status}, t.observer
}

func notify(observer ProgressObserver, snap types.JobProgress) {
	if observer != nil {
		observer(snap)
	}
}

func clampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
