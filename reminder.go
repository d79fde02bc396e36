package main

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// --- Reminder Scheduler ---

// NotifyFunc delivers one reminder to its owner. Failures are logged by the
// store and never retried.
type NotifyFunc func(ownerID, taskID, title, label string) error

// reminderLead is one of the fixed lead times before a deadline.
type reminderLead struct {
	lead  time.Duration
	label string
}

var reminderLeads = []reminderLead{
	{10 * time.Minute, "10 minutes"},
	{5 * time.Minute, "5 minutes"},
	{0, "NOW"},
}

type reminderOffset struct {
	label  string
	fireAt time.Time
	timer  *clock.Timer
}

type reminderEntry struct {
	ownerID string
	title   string
	target  time.Time
	notify  NotifyFunc
	offsets map[string]*reminderOffset
}

// ReminderInfo is a read-only snapshot row returned by ListForOwner.
type ReminderInfo struct {
	TaskID  string    `json:"taskId"`
	Title   string    `json:"title"`
	Target  time.Time `json:"target"`
	Pending []string  `json:"pending"`
}

// ReminderStore schedules up to three one-shot notifications per task
// deadline (10 minutes before, 5 minutes before, and at the deadline).
// Offsets are computed once against the absolute target, so cancellation is
// plain handle invalidation and clock drift between calls cannot skew them.
// Constructed once per process and passed to callers; no package globals.
type ReminderStore struct {
	clk           clock.Clock
	sweepInterval time.Duration

	mu      sync.Mutex
	entries map[string]*reminderEntry

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newReminderStore(clk clock.Clock, sweepInterval time.Duration) *ReminderStore {
	if clk == nil {
		clk = clock.New()
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	return &ReminderStore{
		clk:           clk,
		sweepInterval: sweepInterval,
		entries:       make(map[string]*reminderEntry),
		stopCh:        make(chan struct{}),
	}
}

// Schedule arranges reminders for a task due at target. A target at or before
// now is a no-op. Scheduling a task ID again replaces its previous reminders.
func (s *ReminderStore) Schedule(ownerID, taskID, title string, target time.Time, notify NotifyFunc, now time.Time) {
	if !target.After(now) {
		logInfo("deadline already passed, not scheduling", "taskId", taskID, "target", target)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[taskID]; ok {
		stopEntry(old)
		delete(s.entries, taskID)
	}

	entry := &reminderEntry{
		ownerID: ownerID,
		title:   title,
		target:  target,
		notify:  notify,
		offsets: make(map[string]*reminderOffset),
	}
	for _, l := range reminderLeads {
		fireAt := target.Add(-l.lead)
		delay := fireAt.Sub(now)
		if delay <= 0 {
			continue
		}
		off := &reminderOffset{label: l.label, fireAt: fireAt}
		label := l.label
		off.timer = s.clk.AfterFunc(delay, func() {
			s.fire(taskID, label)
		})
		entry.offsets[l.label] = off
	}
	s.entries[taskID] = entry
	logInfo("reminders scheduled", "taskId", taskID, "title", title,
		"target", target, "count", len(entry.offsets))
}

// fire delivers one offset's notification. The offset is removed before the
// notify call so a cancelled handle can never deliver.
func (s *ReminderStore) fire(taskID, label string) {
	s.mu.Lock()
	entry, ok := s.entries[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, ok := entry.offsets[label]; !ok {
		s.mu.Unlock()
		return
	}
	delete(entry.offsets, label)
	if len(entry.offsets) == 0 {
		delete(s.entries, taskID)
	}
	ownerID, title, notify := entry.ownerID, entry.title, entry.notify
	s.mu.Unlock()

	if notify == nil {
		return
	}
	if err := notify(ownerID, taskID, title, label); err != nil {
		// Per-offset: sibling offsets keep their timers, no retry.
		logWarn("reminder delivery failed", "taskId", taskID, "label", label, "error", err)
		return
	}
	logInfo("reminder sent", "taskId", taskID, "ownerId", ownerID, "label", label)
}

// Cancel stops every not-yet-fired offset for the task. Unknown task IDs are
// a no-op.
func (s *ReminderStore) Cancel(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[taskID]
	if !ok {
		return
	}
	stopEntry(entry)
	delete(s.entries, taskID)
	logInfo("reminders cancelled", "taskId", taskID)
}

func stopEntry(entry *reminderEntry) {
	for label, off := range entry.offsets {
		if off.timer != nil {
			off.timer.Stop()
		}
		delete(entry.offsets, label)
	}
}

// CancelAllForOwner stops every pending reminder the owner has and reports how
// many tasks were affected. Tasks and calendar events stay; only the pending
// notifications go.
func (s *ReminderStore) CancelAllForOwner(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancelled := 0
	for taskID, entry := range s.entries {
		if entry.ownerID != ownerID {
			continue
		}
		stopEntry(entry)
		delete(s.entries, taskID)
		cancelled++
	}
	if cancelled > 0 {
		logInfo("all reminders cancelled", "ownerId", ownerID, "count", cancelled)
	}
	return cancelled
}

// ListForOwner returns a snapshot of the owner's tracked reminders.
func (s *ReminderStore) ListForOwner(ownerID string) []ReminderInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ReminderInfo
	for taskID, entry := range s.entries {
		if entry.ownerID != ownerID {
			continue
		}
		info := ReminderInfo{TaskID: taskID, Title: entry.title, Target: entry.target}
		for label := range entry.offsets {
			info.Pending = append(info.Pending, label)
		}
		out = append(out, info)
	}
	return out
}

// SweepExpired discards bookkeeping for tasks whose target is already in the
// past, firing nothing. Offsets missed while the process was down stay missed.
func (s *ReminderStore) SweepExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for taskID, entry := range s.entries {
		if entry.target.Before(now) {
			stopEntry(entry)
			delete(s.entries, taskID)
			logInfo("stale reminder discarded", "taskId", taskID, "target", entry.target)
		}
	}
}

// Start runs the periodic expiry sweep until the context is done or Stop is
// called.
func (s *ReminderStore) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := s.clk.Ticker(s.sweepInterval)
		defer ticker.Stop()
		logInfo("reminder sweep started", "interval", s.sweepInterval.String())
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.SweepExpired(s.clk.Now())
			}
		}
	}()
}

// Stop halts the sweep loop.
func (s *ReminderStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}
