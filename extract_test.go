package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday morning, used as the reference time unless a test needs otherwise.
var testNow = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func TestExtract_TestWithTomorrowAndTime(t *testing.T) {
	e := newExtractor()
	res := e.Extract("I have a biology test tomorrow at 3pm", testNow)

	assert.Equal(t, "Study For Biology Test Tomorrow at 3:00pm", res.Title)
	require.NotNil(t, res.Deadline)
	assert.Equal(t, time.Date(2024, time.January, 11, 15, 0, 0, 0, time.UTC), res.Deadline.Instant)
	assert.Equal(t, time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC), res.Deadline.Date)
	require.NotNil(t, res.Deadline.TimeOfDay)
	assert.Equal(t, ClockTime{Hour: 15, Minute: 0}, *res.Deadline.TimeOfDay)
}

func TestExtract_PlainTaskNoDeadline(t *testing.T) {
	e := newExtractor()
	res := e.Extract("clean my room", testNow)

	assert.Equal(t, "Clean My Room", res.Title)
	assert.Nil(t, res.Deadline)
}

func TestExtract_TimeOnlyDefaultsToToday(t *testing.T) {
	e := newExtractor()
	res := e.Extract("call mom at 7:30pm", testNow)

	assert.Equal(t, "Call Mom at 7:30pm", res.Title)
	require.NotNil(t, res.Deadline)
	require.NotNil(t, res.Deadline.TimeOfDay)
	assert.Equal(t, ClockTime{Hour: 19, Minute: 30}, *res.Deadline.TimeOfDay)
	assert.Equal(t, startOfDay(testNow), res.Deadline.Date)
	assert.Equal(t, time.Date(2024, time.January, 10, 19, 30, 0, 0, time.UTC), res.Deadline.Instant)
}

func TestExtract_TimeTypos(t *testing.T) {
	e := newExtractor()
	for input, want := range map[string]ClockTime{
		"submit form 3pkm":     {Hour: 15, Minute: 0},
		"submit form 9:15 amk": {Hour: 9, Minute: 15},
		"submit form 12pm":     {Hour: 12, Minute: 0},
		"submit form 12am":     {Hour: 0, Minute: 0},
	} {
		t.Run(input, func(t *testing.T) {
			res := e.Extract(input, testNow)
			require.NotNil(t, res.Deadline, "input %q", input)
			require.NotNil(t, res.Deadline.TimeOfDay)
			assert.Equal(t, want, *res.Deadline.TimeOfDay)
		})
	}
}

func TestExtract_SpellingCorrections(t *testing.T) {
	e := newExtractor()

	res := e.Extract("i have a study seesion tomoroor", testNow)
	assert.Equal(t, "Complete Study Session Tomorrow", res.Title)
	require.NotNil(t, res.Deadline)
	assert.Equal(t, startOfDay(testNow).AddDate(0, 0, 1), res.Deadline.Date)

	res = e.Extract("dr appointment on friday", testNow)
	assert.Equal(t, "Doctor Appointment Friday", res.Title)
}

func TestExtract_RequestPhraseStripping(t *testing.T) {
	e := newExtractor()

	res := e.Extract("can you create a task for my homework", testNow)
	assert.Equal(t, "My Homework", res.Title)

	res = e.Extract("remind me to water the plants", testNow)
	assert.Equal(t, "Water Plants", res.Title)
}

func TestExtract_TitleSynthesis(t *testing.T) {
	e := newExtractor()
	cases := []struct {
		input string
		want  string
	}{
		{"i have a math exam", "Study For Math Exam"},
		{"i have homework", "Complete Homework"},
		{"i have a dentist appointment", "Prepare For Dentist Appointment"},
		{"i got an assignment", "Work On Assignment"},
		{"i need a haircut", "Complete Haircut"},
		// Overlapping keywords resolve by the fixed chain order.
		{"i have a project exam", "Study For Project Exam"},
		{"i have homework and a project", "Complete Homework Project"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			res := e.Extract(tc.input, testNow)
			assert.Equal(t, tc.want, res.Title)
		})
	}
}

func TestExtract_TrailingPunctuationStripped(t *testing.T) {
	e := newExtractor()
	res := e.Extract("wash the car!!!", testNow)
	assert.Equal(t, "Wash Car", res.Title)
}

func TestExtract_CaseInsensitive(t *testing.T) {
	e := newExtractor()
	a := e.Extract("I Have A Biology TEST Tomorrow At 3PM", testNow)
	b := e.Extract(strings.ToLower(strings.TrimSpace("  i have a biology test tomorrow at 3pm  ")), testNow)
	assert.Equal(t, b.Title, a.Title)
	assert.Equal(t, b.Deadline, a.Deadline)
}

func TestExtract_DatePriorityFirstRuleWins(t *testing.T) {
	e := newExtractor()
	res := e.Extract("let's meet tomorrow or maybe monday", testNow)
	require.NotNil(t, res.Deadline)
	assert.Equal(t, startOfDay(testNow).AddDate(0, 0, 1), res.Deadline.Date)
}

// The clarity fix only covers "tomorrow": a deadline that lands on the next
// calendar day without the word appearing in the title gets it appended.
// Other date words are deliberately left alone.
func TestExtract_TomorrowAppendedToTitle(t *testing.T) {
	e := newExtractor()
	lateNight := time.Date(2024, time.January, 10, 22, 0, 0, 0, time.UTC)

	res := e.Extract("I have a quiz in a few hours", lateNight)
	assert.Equal(t, "Study For Quiz Few Hours Tomorrow", res.Title)
	require.NotNil(t, res.Deadline)
	assert.Equal(t, time.Date(2024, time.January, 11, 1, 0, 0, 0, time.UTC), res.Deadline.Instant)

	// Same phrase in the afternoon stays on the same day: no suffix.
	res = e.Extract("I have a quiz in a few hours", testNow)
	assert.Equal(t, "Study For Quiz Few Hours", res.Title)
}

func TestExtract_DegradesOnIrregularInput(t *testing.T) {
	e := newExtractor()

	res := e.Extract("", testNow)
	assert.Equal(t, "Task", res.Title)
	assert.Nil(t, res.Deadline)

	res = e.Extract("   !!!   ", testNow)
	assert.NotEmpty(t, res.Title)
	assert.Nil(t, res.Deadline)
}

func TestExtract_DeadlineInvariant(t *testing.T) {
	e := newExtractor()
	for _, input := range []string{
		"i have a test tomorrow at 3pm",
		"pay rent by end of day",
		"team meeting next week",
		"buy groceries",
		"renew passport by friday",
	} {
		res := e.Extract(input, testNow)
		if res.Deadline == nil {
			continue
		}
		want := res.Deadline.Date
		if tod := res.Deadline.TimeOfDay; tod != nil {
			want = time.Date(want.Year(), want.Month(), want.Day(), tod.Hour, tod.Minute, 0, 0, want.Location())
		}
		assert.Equal(t, want, res.Deadline.Instant, "input %q", input)
	}
}
