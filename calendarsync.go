package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// --- Calendar URL Sync ---

// SyncConfig is one saved calendar subscription: an ICS URL re-fetched on an
// interval.
type SyncConfig struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Name      string     `json:"name"`
	ICSURL    string     `json:"icsUrl"`
	Interval  string     `json:"interval,omitempty"` // default "1h"
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"createdAt"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

func (c SyncConfig) intervalOrDefault() time.Duration {
	if c.Interval != "" {
		if d, err := time.ParseDuration(c.Interval); err == nil && d > 0 {
			return d
		}
	}
	return time.Hour
}

// SyncInfo is a SyncConfig snapshot plus whether its job is running.
type SyncInfo struct {
	SyncConfig
	Active bool `json:"active"`
}

// CalendarSyncStore keeps calendar subscriptions in a JSON file and runs one
// re-fetch job per enabled subscription. Each sync downloads the ICS feed,
// imports new future events, and arranges their deadline reminders.
type CalendarSyncStore struct {
	clk       clock.Clock
	calendar  *CalendarStore
	reminders *ReminderStore
	notify    NotifyFunc
	client    *http.Client
	path      string

	mu   sync.Mutex
	jobs map[string]chan struct{}
	ctx  context.Context
	wg   sync.WaitGroup
}

func newCalendarSyncStore(dataDir string, clk clock.Clock, calendar *CalendarStore, reminders *ReminderStore, notify NotifyFunc) (*CalendarSyncStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &CalendarSyncStore{
		clk:       clk,
		calendar:  calendar,
		reminders: reminders,
		notify:    notify,
		client:    &http.Client{Timeout: 30 * time.Second},
		path:      filepath.Join(dataDir, "sync-configs.json"),
		jobs:      make(map[string]chan struct{}),
		ctx:       context.Background(),
	}, nil
}

func (s *CalendarSyncStore) load() (map[string]SyncConfig, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]SyncConfig), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync configs: %w", err)
	}
	all := make(map[string]SyncConfig)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse sync configs: %w", err)
	}
	return all, nil
}

func (s *CalendarSyncStore) save(all map[string]SyncConfig) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sync configs: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write sync configs: %w", err)
	}
	return nil
}

// Add saves a new subscription, performs the initial sync, and starts its
// re-fetch job. A sync failure does not fail Add; it is recorded on the config.
func (s *CalendarSyncStore) Add(ownerID, name, icsURL, interval string) (SyncConfig, error) {
	u, err := url.ParseRequestURI(icsURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return SyncConfig{}, fmt.Errorf("bad ics url %q", icsURL)
	}
	if interval != "" {
		if d, err := time.ParseDuration(interval); err != nil || d <= 0 {
			return SyncConfig{}, fmt.Errorf("bad sync interval %q", interval)
		}
	}
	if name == "" {
		name = "Calendar Sync"
	}

	cfg := SyncConfig{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		ICSURL:    icsURL,
		Interval:  interval,
		Enabled:   true,
		CreatedAt: s.clk.Now(),
	}

	s.mu.Lock()
	all, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return SyncConfig{}, err
	}
	all[cfg.ID] = cfg
	if err := s.save(all); err != nil {
		s.mu.Unlock()
		return SyncConfig{}, err
	}
	s.mu.Unlock()

	logInfo("calendar sync created", "syncId", cfg.ID, "ownerId", ownerID, "name", name)
	if err := s.SyncNow(cfg.ID); err != nil {
		logWarn("initial calendar sync failed", "syncId", cfg.ID, "error", err)
	}
	s.startJob(cfg.ID, cfg.intervalOrDefault())

	s.mu.Lock()
	all, loadErr := s.load()
	saved := all[cfg.ID]
	s.mu.Unlock()
	if loadErr != nil {
		return cfg, nil
	}
	return saved, nil
}

// SyncNow fetches the subscription's feed once, importing future events and
// scheduling their reminders. The outcome is recorded on the config either way.
func (s *CalendarSyncStore) SyncNow(configID string) error {
	s.mu.Lock()
	all, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	cfg, ok := all[configID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("sync config %s not found", configID)
	}
	if !cfg.Enabled {
		return nil
	}

	syncErr := s.performSync(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	all, err = s.load()
	if err != nil {
		return syncErr
	}
	cfg, ok = all[configID]
	if !ok {
		return syncErr
	}
	now := s.clk.Now()
	cfg.LastSync = &now
	cfg.LastError = ""
	if syncErr != nil {
		cfg.LastError = syncErr.Error()
	}
	all[configID] = cfg
	if err := s.save(all); err != nil {
		logWarn("saving sync outcome failed", "syncId", configID, "error", err)
	}
	return syncErr
}

func (s *CalendarSyncStore) performSync(cfg SyncConfig) error {
	resp, err := s.client.Get(cfg.ICSURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", cfg.ICSURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fetch %s: HTTP %d", cfg.ICSURL, resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}

	now := s.clk.Now()
	added, skipped, err := s.calendar.ImportICS(cfg.OwnerID, string(content), now)
	if err != nil {
		return err
	}
	if events, err := s.calendar.Events(cfg.OwnerID, &now, nil); err == nil {
		for _, ev := range events {
			ScheduleEventReminders(s.reminders, cfg.OwnerID, ev, s.notify, now)
		}
	}
	logInfo("calendar sync completed", "syncId", cfg.ID, "name", cfg.Name,
		"added", added, "skipped", skipped)
	return nil
}

func (s *CalendarSyncStore) startJob(configID string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[configID]; ok {
		close(old)
	}
	stop := make(chan struct{})
	s.jobs[configID] = stop
	ctx := s.ctx
	ticker := s.clk.Ticker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				// A stop racing the tick wins.
				select {
				case <-stop:
					return
				default:
				}
				if err := s.SyncNow(configID); err != nil {
					logWarn("calendar sync failed", "syncId", configID, "error", err)
				}
			}
		}
	}()
}

func (s *CalendarSyncStore) stopJob(configID string) {
	if stop, ok := s.jobs[configID]; ok {
		close(stop)
		delete(s.jobs, configID)
	}
}

// ListForOwner returns the owner's subscriptions with their job state.
func (s *CalendarSyncStore) ListForOwner(ownerID string) ([]SyncInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []SyncInfo
	for id, cfg := range all {
		if cfg.OwnerID != ownerID {
			continue
		}
		_, active := s.jobs[id]
		out = append(out, SyncInfo{SyncConfig: cfg, Active: active})
	}
	return out, nil
}

// Remove stops the subscription's job and deletes it. Returns false when the
// owner has no such subscription.
func (s *CalendarSyncStore) Remove(ownerID, configID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return false, err
	}
	cfg, ok := all[configID]
	if !ok || cfg.OwnerID != ownerID {
		return false, nil
	}
	s.stopJob(configID)
	delete(all, configID)
	if err := s.save(all); err != nil {
		return false, err
	}
	logInfo("calendar sync removed", "syncId", configID, "ownerId", ownerID)
	return true, nil
}

// Start restarts the job for every enabled subscription. Jobs also end when
// ctx is done.
func (s *CalendarSyncStore) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	all, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	started := 0
	for id, cfg := range all {
		if !cfg.Enabled {
			continue
		}
		s.startJob(id, cfg.intervalOrDefault())
		started++
	}
	if started > 0 {
		logInfo("calendar sync jobs restarted", "count", started)
	}
	return nil
}

// Stop halts every running job.
func (s *CalendarSyncStore) Stop() {
	s.mu.Lock()
	for id, stop := range s.jobs {
		close(stop)
		delete(s.jobs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
