package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:ev-future-1
SUMMARY:Biology Exam
DESCRIPTION:Room 204
LOCATION:Main Hall
DTSTART:20300102T150000Z
DTEND:20300102T160000Z
END:VEVENT
BEGIN:VEVENT
UID:ev-past-1
SUMMARY:Old Meeting
DTSTART:20200101T100000Z
DTEND:20200101T110000Z
END:VEVENT
BEGIN:VEVENT
UID:ev-future-2
SUMMARY:Study Group
DTSTART:20300105T000000Z
DTEND:20300106T000000Z
END:VEVENT
END:VCALENDAR
`

func newTestCalendarStore(t *testing.T) *CalendarStore {
	t.Helper()
	store, err := newCalendarStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCalendarStore_ImportICS(t *testing.T) {
	store := newTestCalendarStore(t)
	now := time.Date(2029, time.December, 1, 0, 0, 0, 0, time.UTC)

	added, skipped, err := store.ImportICS("u1", sampleICS, now)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, skipped) // the 2020 event

	events, err := store.Events("u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Sorted by start.
	assert.Equal(t, "Biology Exam", events[0].Title)
	assert.Equal(t, "Room 204", events[0].Description)
	assert.Equal(t, "Main Hall", events[0].Location)
	assert.Equal(t, "ics", events[0].Source)
	assert.False(t, events[0].AllDay)
	assert.Equal(t, "Study Group", events[1].Title)
	assert.True(t, events[1].AllDay)
}

func TestCalendarStore_ImportIsIdempotent(t *testing.T) {
	store := newTestCalendarStore(t)
	now := time.Date(2029, time.December, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := store.ImportICS("u1", sampleICS, now)
	require.NoError(t, err)

	added, skipped, err := store.ImportICS("u1", sampleICS, now)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 3, skipped) // one past, two duplicates

	events, err := store.Events("u1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCalendarStore_ImportRejectsGarbage(t *testing.T) {
	store := newTestCalendarStore(t)
	_, _, err := store.ImportICS("u1", "not a calendar", time.Now())
	assert.Error(t, err)
}

func TestCalendarStore_AddEventDedupe(t *testing.T) {
	store := newTestCalendarStore(t)
	start := time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)

	ok, err := store.AddEvent("u1", CalendarEvent{Title: "Dentist", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, ok)

	// Same title and start counts as the same event even with a fresh ID.
	ok, err = store.AddEvent("u1", CalendarEvent{Title: "Dentist", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, ok)

	events, err := store.Events("u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "manual", events[0].Source)
	assert.NotEmpty(t, events[0].ID)
}

func TestCalendarStore_EventsRangeFilter(t *testing.T) {
	store := newTestCalendarStore(t)
	base := time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.AddEvent("u1", CalendarEvent{
			Title: string(rune('A' + i)),
			Start: base.AddDate(0, 0, i*7),
		})
		require.NoError(t, err)
	}

	from := base.AddDate(0, 0, 3)
	to := base.AddDate(0, 0, 10)
	events, err := store.Events("u1", &from, &to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "B", events[0].Title)
}

func TestCalendarStore_ClearPastAndAll(t *testing.T) {
	store := newTestCalendarStore(t)
	now := time.Date(2030, time.June, 15, 0, 0, 0, 0, time.UTC)

	_, err := store.AddEvent("u1", CalendarEvent{Title: "Old", Start: now.AddDate(0, 0, -1)})
	require.NoError(t, err)
	_, err = store.AddEvent("u1", CalendarEvent{Title: "New", Start: now.AddDate(0, 0, 1)})
	require.NoError(t, err)

	removed, err := store.ClearPast("u1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	events, err := store.Events("u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "New", events[0].Title)

	removed, err = store.ClearAll("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
