package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// --- Countdown Timers ---

// TimerNotifyFunc delivers a timer-finished message to its owner.
type TimerNotifyFunc func(ownerID, label string) error

// Timer is one running countdown.
type Timer struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type timerEntry struct {
	info   Timer
	handle *clock.Timer
}

// TimerStore tracks per-user countdown timers. Unlike reminders these are
// purely relative: one duration, one notification at the end.
type TimerStore struct {
	clk clock.Clock

	mu     sync.Mutex
	timers map[string]*timerEntry
}

func newTimerStore(clk clock.Clock) *TimerStore {
	if clk == nil {
		clk = clock.New()
	}
	return &TimerStore{clk: clk, timers: make(map[string]*timerEntry)}
}

// Start begins a countdown and returns its handle info.
func (s *TimerStore) Start(ownerID, label string, d time.Duration, notify TimerNotifyFunc) (Timer, error) {
	if d <= 0 {
		return Timer{}, fmt.Errorf("timer duration must be positive, got %s", d)
	}
	now := s.clk.Now()
	info := Timer{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Label:     label,
		StartedAt: now,
		ExpiresAt: now.Add(d),
	}
	entry := &timerEntry{info: info}

	s.mu.Lock()
	entry.handle = s.clk.AfterFunc(d, func() { s.expire(info.ID, notify) })
	s.timers[info.ID] = entry
	s.mu.Unlock()

	logInfo("timer started", "timerId", info.ID, "ownerId", ownerID, "label", label, "duration", d.String())
	return info, nil
}

func (s *TimerStore) expire(timerID string, notify TimerNotifyFunc) {
	s.mu.Lock()
	entry, ok := s.timers[timerID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, timerID)
	s.mu.Unlock()

	if notify == nil {
		return
	}
	if err := notify(entry.info.OwnerID, entry.info.Label); err != nil {
		logWarn("timer notification failed", "timerId", timerID, "error", err)
		return
	}
	logInfo("timer finished", "timerId", timerID, "ownerId", entry.info.OwnerID, "label", entry.info.Label)
}

// Cancel stops a running timer. Returns false for unknown IDs.
func (s *TimerStore) Cancel(timerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.timers[timerID]
	if !ok {
		return false
	}
	entry.handle.Stop()
	delete(s.timers, timerID)
	logInfo("timer cancelled", "timerId", timerID)
	return true
}

// ListForOwner returns the owner's running timers, soonest first.
func (s *TimerStore) ListForOwner(ownerID string) []Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Timer
	for _, entry := range s.timers {
		if entry.info.OwnerID == ownerID {
			out = append(out, entry.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}
