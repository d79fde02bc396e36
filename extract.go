package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// --- Task Text Extraction ---

// ClockTime is a wall-clock time of day in 24-hour form.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Deadline is a calendar date plus optional time of day. Instant is always
// Date combined with TimeOfDay (midnight when TimeOfDay is nil); it is the
// single instant reminders are computed against.
type Deadline struct {
	Date      time.Time  `json:"date"`
	TimeOfDay *ClockTime `json:"timeOfDay,omitempty"`
	Instant   time.Time  `json:"instant"`
}

// ExtractionResult is the output of Extract for one input string. Title and
// Deadline are extracted independently; a deadline may be absent.
type ExtractionResult struct {
	Title    string
	Deadline *Deadline
}

type replacement struct {
	from, to string
}

// Extractor turns a raw chat utterance into a cleaned task title and an
// optional deadline. The substitution tables are data so they can be tested
// and extended independently of the pipeline.
type Extractor struct {
	spelling     []replacement // literal substring fixes, applied up front
	postSpelling []replacement // narrow second pass for forms produced by filtering
	phrases      []string      // conversational request wrappers, stripped whole
	stopwords    map[string]bool
	requestWords map[string]bool
	fillers      map[string]bool
	leadingTrims []string
}

var clockTimeRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm|amk|pkm)\b`)

// newExtractor returns an Extractor with the default tables.
func newExtractor() *Extractor {
	return &Extractor{
		spelling: []replacement{
			{"seesion", "session"},
			{"tomoroor", "tomorrow"},
			{"tommorow", "tomorrow"},
			{"tomorow", "tomorrow"},
			{"dr ", "doctor "},
		},
		postSpelling: []replacement{
			{"totomorrow", "tomorrow"},
		},
		phrases: []string{
			"can you create a task for me",
			"can you create a task",
			"can you add a task",
			"create a task for me",
			"create a task",
			"add a task",
			"please add this",
			"set a reminder for me",
			"set a reminder",
			"remind me to",
			"remind me",
		},
		stopwords: wordSet("and or but the a an in on at for of with by"),
		requestWords: wordSet(
			"can you help please create add make this that thing task"),
		fillers: wordSet(
			"well so um uh like actually basically yeah ok okay hmm anyway just"),
		leadingTrims: []string{"to ", "i need to ", "i have to ", "i want to "},
	}
}

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// Extract runs the full normalization pipeline. It is a pure function of the
// input text and the reference time, and never fails: irregular input degrades
// to a lightly processed title with no deadline.
func (e *Extractor) Extract(raw string, now time.Time) ExtractionResult {
	// 1. Case fold.
	text := strings.ToLower(raw)

	// 2. Spelling correction.
	for _, r := range e.spelling {
		text = strings.ReplaceAll(text, r.from, r.to)
	}

	// 3. Clock time extraction; the matched substring is removed so it does
	// not pollute the title.
	tod, text := extractClockTime(text)

	// 4. Date extraction against the time-stripped text. The date phrase is
	// left in place; it may be re-appended to the title below.
	parsedDate, dateFound := parseNaturalDate(text, now)

	// 5. Request-phrase stripping.
	for _, p := range e.phrases {
		text = strings.ReplaceAll(text, p, " ")
	}

	// 6. Token filtering. Narrow by intent: stopwords, request verbs, and
	// fillers go; the remaining words carry the task's meaning.
	var kept []string
	for _, tok := range strings.Fields(text) {
		if e.stopwords[tok] || e.requestWords[tok] || e.fillers[tok] || tok == "i" {
			continue
		}
		kept = append(kept, tok)
	}
	text = strings.Join(kept, " ")

	// 7. Leading-phrase trim.
	for _, lead := range e.leadingTrims {
		if strings.HasPrefix(text, lead) {
			text = strings.TrimPrefix(text, lead)
			break
		}
	}
	for _, r := range e.postSpelling {
		text = strings.ReplaceAll(text, r.from, r.to)
	}

	// 8. Title synthesis.
	title := synthesizeTitle(text)

	// 9.–10. Capitalization and trailing punctuation.
	title = capitalizeWords(title)
	title = strings.TrimRight(title, ".!?")

	if title == "" {
		title = capitalizeWords(strings.TrimSpace(raw))
	}
	if title == "" {
		title = "Task"
	}

	// 11. Re-attach the extracted clock time for display.
	if tod != nil {
		title += " at " + formatClockTime(*tod)
	}

	// 12. Clarity fix: if the deadline is tomorrow and the title does not say
	// so, append it. Deliberately narrow; other date words are left alone.
	if dateFound && sameDay(parsedDate, now.AddDate(0, 0, 1)) && !containsDateWord(title) {
		title += " Tomorrow"
	}

	return ExtractionResult{
		Title:    title,
		Deadline: buildDeadline(parsedDate, dateFound, tod, now),
	}
}

// extractClockTime finds an "H[:MM] am/pm" time (tolerating the pkm/amk
// typos), returning it in 24-hour form and the text with the match removed.
func extractClockTime(text string) (*ClockTime, string) {
	m := clockTimeRe.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text
	}
	hour, _ := strconv.Atoi(text[m[2]:m[3]])
	minute := 0
	if m[4] >= 0 {
		minute, _ = strconv.Atoi(text[m[4]:m[5]])
	}
	period := text[m[6]:m[7]]
	if period == "pkm" {
		period = "pm"
	} else if period == "amk" {
		period = "am"
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return nil, text
	}
	if period == "pm" && hour != 12 {
		hour += 12
	} else if period == "am" && hour == 12 {
		hour = 0
	}
	return &ClockTime{Hour: hour, Minute: minute}, text[:m[0]] + text[m[1]:]
}

var (
	reHave = regexp.MustCompile(`(?:^|\s)(?:i\s+)?have\s+(?:an?\s+)?(.+)$`)
	reGot  = regexp.MustCompile(`(?:^|\s)(?:i\s+)?got\s+(?:an?\s+)?(.+)$`)
	reNeed = regexp.MustCompile(`(?:^|\s)(?:i\s+)?need\s+(?:an?\s+)?(.+)$`)
)

// synthesizeTitle rewrites "have/got/need X" phrasing into an action-oriented
// task name. Text with no such phrasing passes through unchanged.
func synthesizeTitle(text string) string {
	var subject string
	for _, re := range []*regexp.Regexp{reHave, reGot, reNeed} {
		if m := re.FindStringSubmatch(text); m != nil {
			subject = strings.TrimSpace(m[1])
			break
		}
	}
	if subject == "" {
		return text
	}
	switch {
	case containsAny(subject, "test", "exam", "quiz"):
		return "study for " + subject
	case strings.Contains(subject, "homework"):
		return "complete " + subject
	case containsAny(subject, "meeting", "appointment", "interview"):
		return "prepare for " + subject
	case containsAny(subject, "project", "assignment", "paper"):
		return "work on " + subject
	default:
		return "complete " + subject
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// buildDeadline assembles the Deadline value. A time with no date defaults to
// today; a date phrase that itself carries a clock component (end of day,
// urgent, in a few hours) supplies the time of day unless an explicit clock
// time was given.
func buildDeadline(parsedDate time.Time, dateFound bool, tod *ClockTime, now time.Time) *Deadline {
	if !dateFound && tod == nil {
		return nil
	}
	date := startOfDay(now)
	if dateFound {
		date = startOfDay(parsedDate)
		if tod == nil && (parsedDate.Hour() != 0 || parsedDate.Minute() != 0) {
			tod = &ClockTime{Hour: parsedDate.Hour(), Minute: parsedDate.Minute()}
		}
	}
	instant := date
	if tod != nil {
		instant = time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, date.Location())
	}
	return &Deadline{Date: date, TimeOfDay: tod, Instant: instant}
}

func formatClockTime(t ClockTime) string {
	period := "am"
	hour := t.Hour
	if hour >= 12 {
		period = "pm"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, t.Minute, period)
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var titleDateWords = []string{
	"tomorrow", "today", "tonight", "next week", "next month",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

func containsDateWord(title string) bool {
	lower := strings.ToLower(title)
	for _, w := range titleDateWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
