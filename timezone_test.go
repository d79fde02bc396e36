package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimezone(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"America/New_York", "America/New_York"},
		{"UTC", "UTC"},
		{"PST", "America/Los_Angeles"},
		{"pst", "America/Los_Angeles"},
		{"JST", "Asia/Tokyo"},
		{"  EST  ", "America/New_York"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := resolveTimezone(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, input := range []string{"", "Mars/Olympus_Mons", "GMT+25"} {
		t.Run("invalid "+input, func(t *testing.T) {
			_, err := resolveTimezone(input)
			assert.Error(t, err)
		})
	}
}

func TestTimezoneStore_SetAndGet(t *testing.T) {
	dir := t.TempDir()
	store, err := newTimezoneStore(dir)
	require.NoError(t, err)

	// Unset users are UTC.
	assert.Equal(t, "UTC", store.Get("u1"))
	assert.Equal(t, time.UTC, store.Location("u1"))

	zone, err := store.Set("u1", "CET")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", zone)
	assert.Equal(t, "Europe/Paris", store.Get("u1"))

	_, err = store.Set("u1", "nowhere")
	assert.Error(t, err)

	// Settings survive a reopen.
	reopened, err := newTimezoneStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", reopened.Get("u1"))
	assert.Equal(t, "UTC", reopened.Get("u2"))
}

func TestTimezoneOffset(t *testing.T) {
	at := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "UTC+00:00", timezoneOffset(time.UTC, at))

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "UTC+05:30", timezoneOffset(kolkata, at))

	// January in New York is standard time.
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "UTC-05:00", timezoneOffset(newYork, at))
}
