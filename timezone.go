package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// --- Per-User Timezones ---

// Common abbreviations accepted in place of IANA names.
var timezoneAliases = map[string]string{
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"GMT":  "Europe/London",
	"UTC":  "UTC",
	"CET":  "Europe/Paris",
	"CEST": "Europe/Paris",
	"JST":  "Asia/Tokyo",
	"IST":  "Asia/Kolkata",
	"AEST": "Australia/Sydney",
	"AEDT": "Australia/Sydney",
}

// resolveTimezone maps an abbreviation to its IANA name and validates the
// result against the zone database.
func resolveTimezone(input string) (string, error) {
	name := strings.TrimSpace(input)
	if canonical, ok := timezoneAliases[strings.ToUpper(name)]; ok {
		name = canonical
	}
	if name == "" {
		return "", fmt.Errorf("invalid timezone %q", input)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", fmt.Errorf("invalid timezone %q", input)
	}
	return name, nil
}

// TimezoneStore persists each user's IANA zone name in a JSON file. Users
// without a setting are UTC.
type TimezoneStore struct {
	mu   sync.Mutex
	path string
}

func newTimezoneStore(dataDir string) (*TimezoneStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &TimezoneStore{path: filepath.Join(dataDir, "timezones.json")}, nil
}

func (s *TimezoneStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read timezone store: %w", err)
	}
	all := make(map[string]string)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse timezone store: %w", err)
	}
	return all, nil
}

// Set validates and stores the user's zone, returning the canonical IANA name.
func (s *TimezoneStore) Set(userID, zone string) (string, error) {
	name, err := resolveTimezone(zone)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return "", err
	}
	all[userID] = name
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode timezone store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return "", fmt.Errorf("write timezone store: %w", err)
	}
	logInfo("timezone set", "userId", userID, "timezone", name)
	return name, nil
}

// Get returns the user's zone name, defaulting to UTC.
func (s *TimezoneStore) Get(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		logWarn("timezone lookup failed, using UTC", "userId", userID, "error", err)
		return "UTC"
	}
	if zone, ok := all[userID]; ok {
		return zone
	}
	return "UTC"
}

// Location returns the user's zone as a Location, falling back to UTC if the
// stored name no longer loads.
func (s *TimezoneStore) Location(userID string) *time.Location {
	loc, err := time.LoadLocation(s.Get(userID))
	if err != nil {
		return time.UTC
	}
	return loc
}

// timezoneOffset formats the zone's UTC offset at a point in time, e.g.
// "UTC+05:30".
func timezoneOffset(loc *time.Location, at time.Time) string {
	_, seconds := at.In(loc).Zone()
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
