package service

import (
	"sync"

	"opncheck-backend/cache"
	"opncheck-backend/models"
)

// ProgressTracker writes per-session analysis progress to the session cache.
// Step and percentage only move forward, and a completed or failed session
// stays terminal; late updates from stragglers are ignored.
type ProgressTracker struct {
	cache *cache.SessionCache
	mu    sync.Mutex
}

func NewProgressTracker(c *cache.SessionCache) *ProgressTracker {
	return &ProgressTracker{cache: c}
}

// Reset clears a session's progress so a new run starts fresh. Monotonicity
// holds within one run, not across runs.
func (t *ProgressTracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Delete(cache.ProgressKey(sessionID))
}

// Update advances the session to the given step. Backward or terminal-state
// updates are dropped.
func (t *ProgressTracker) Update(sessionID string, step, totalSteps int, message string, percentage int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.current(sessionID)
	if ok {
		if cur.Completed || cur.Error {
			return
		}
		if step < cur.Step {
			return
		}
		if percentage < cur.Percentage {
			percentage = cur.Percentage
		}
	}
	t.cache.Put(cache.ProgressKey(sessionID), models.SessionProgress{
		Step:       step,
		TotalSteps: totalSteps,
		Message:    message,
		Percentage: percentage,
	})
}

// Complete marks the session finished at 100%. No-op if already terminal.
func (t *ProgressTracker) Complete(sessionID string, totalSteps int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.current(sessionID); ok && (cur.Completed || cur.Error) {
		return
	}
	t.cache.Put(cache.ProgressKey(sessionID), models.SessionProgress{
		Step:       totalSteps,
		TotalSteps: totalSteps,
		Message:    message,
		Percentage: 100,
		Completed:  true,
	})
}

// Fail records a terminal error for the session, preserving the last step
// reached. No-op if already terminal.
func (t *ProgressTracker) Fail(sessionID string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.current(sessionID)
	if ok && (cur.Completed || cur.Error) {
		return
	}
	if !ok {
		cur = models.SessionProgress{TotalSteps: 1}
	}
	cur.Completed = true
	cur.Error = true
	cur.Message = message
	t.cache.Put(cache.ProgressKey(sessionID), cur)
}

// Status returns the stored progress for a session, if any.
func (t *ProgressTracker) Status(sessionID string) (models.SessionProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(sessionID)
}

func (t *ProgressTracker) current(sessionID string) (models.SessionProgress, bool) {
	var p models.SessionProgress
	found, err := t.cache.Get(cache.ProgressKey(sessionID), &p)
	if err != nil || !found {
		return models.SessionProgress{}, false
	}
	return p, true
}
