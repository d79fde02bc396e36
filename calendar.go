package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// --- Calendar ---

// CalendarEvent is one entry in a user's calendar.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
	Source      string    `json:"source"` // manual, ics
	CreatedAt   time.Time `json:"createdAt"`
}

// CalendarStore persists per-user calendars in a single JSON file, re-read
// and rewritten wholesale like the task store.
type CalendarStore struct {
	mu   sync.Mutex
	path string
}

func newCalendarStore(dataDir string) (*CalendarStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CalendarStore{path: filepath.Join(dataDir, "calendars.json")}, nil
}

func (s *CalendarStore) load() (map[string][]CalendarEvent, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string][]CalendarEvent), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar store: %w", err)
	}
	all := make(map[string][]CalendarEvent)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse calendar store: %w", err)
	}
	return all, nil
}

func (s *CalendarStore) save(all map[string][]CalendarEvent) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode calendar store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write calendar store: %w", err)
	}
	return nil
}

// ImportICS parses ICS content and adds every future event to the user's
// calendar. Past events are skipped. Returns how many events were added and
// how many were skipped as past or duplicate.
func (s *CalendarStore) ImportICS(userID, content string, now time.Time) (added, skipped int, err error) {
	cal, err := ics.ParseCalendar(strings.NewReader(content))
	if err != nil {
		return 0, 0, fmt.Errorf("parse ics: %w", err)
	}

	var events []CalendarEvent
	for _, ev := range cal.Events() {
		start, err := ev.GetStartAt()
		if err != nil {
			logWarn("ics event has no usable start, skipping", "uid", ev.Id(), "error", err)
			skipped++
			continue
		}
		if start.Before(now) {
			skipped++
			continue
		}
		end, err := ev.GetEndAt()
		if err != nil {
			end = start
		}
		events = append(events, CalendarEvent{
			ID:          ev.Id(),
			Title:       propValue(ev, ics.ComponentPropertySummary, "Untitled Event"),
			Description: propValue(ev, ics.ComponentPropertyDescription, ""),
			Location:    propValue(ev, ics.ComponentPropertyLocation, ""),
			Start:       start,
			End:         end,
			AllDay:      isMidnight(start) && isMidnight(end),
			Source:      "ics",
			CreatedAt:   now,
		})
	}

	added, dup, err := s.addEvents(userID, events)
	if err != nil {
		return 0, 0, err
	}
	skipped += dup
	logInfo("ics imported", "userId", userID, "added", added, "skipped", skipped)
	return added, skipped, nil
}

func propValue(ev *ics.VEvent, prop ics.ComponentProperty, fallback string) string {
	if p := ev.GetProperty(prop); p != nil && p.Value != "" {
		return p.Value
	}
	return fallback
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

// AddEvent adds one manual event. Returns false if an equivalent event
// already exists.
func (s *CalendarStore) AddEvent(userID string, ev CalendarEvent) (bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Source == "" {
		ev.Source = "manual"
	}
	added, _, err := s.addEvents(userID, []CalendarEvent{ev})
	return added > 0, err
}

// addEvents merges events into the user's calendar, deduplicating by ID or by
// identical title and start, and keeps the calendar sorted by start time.
func (s *CalendarStore) addEvents(userID string, events []CalendarEvent) (added, dup int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return 0, 0, err
	}
	calendar := all[userID]
	for _, ev := range events {
		if hasEvent(calendar, ev) {
			dup++
			continue
		}
		calendar = append(calendar, ev)
		added++
	}
	if added == 0 {
		return 0, dup, nil
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Start.Before(calendar[j].Start) })
	all[userID] = calendar
	return added, dup, s.save(all)
}

func hasEvent(calendar []CalendarEvent, ev CalendarEvent) bool {
	for _, existing := range calendar {
		if existing.ID == ev.ID {
			return true
		}
		if existing.Title == ev.Title && existing.Start.Equal(ev.Start) {
			return true
		}
	}
	return false
}

// Events returns the user's events, optionally bounded by a start range.
func (s *CalendarStore) Events(userID string, from, to *time.Time) ([]CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []CalendarEvent
	for _, ev := range all[userID] {
		if from != nil && ev.Start.Before(*from) {
			continue
		}
		if to != nil && ev.Start.After(*to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// ClearPast removes events that started before now.
func (s *CalendarStore) ClearPast(userID string, now time.Time) (int, error) {
	return s.removeIf(userID, func(ev CalendarEvent) bool { return ev.Start.Before(now) })
}

// ClearAll wipes the user's calendar.
func (s *CalendarStore) ClearAll(userID string) (int, error) {
	return s.removeIf(userID, func(CalendarEvent) bool { return true })
}

func (s *CalendarStore) removeIf(userID string, drop func(CalendarEvent) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return 0, err
	}
	calendar := all[userID]
	var kept []CalendarEvent
	for _, ev := range calendar {
		if !drop(ev) {
			kept = append(kept, ev)
		}
	}
	removed := len(calendar) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		delete(all, userID)
	} else {
		all[userID] = kept
	}
	return removed, s.save(all)
}

// ScheduleEventReminders arranges the standard deadline offsets for a
// calendar event through the reminder store.
func ScheduleEventReminders(rs *ReminderStore, userID string, ev CalendarEvent, notify NotifyFunc, now time.Time) {
	rs.Schedule(userID, "event:"+ev.ID, ev.Title, ev.Start, notify, now)
}
