package main

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// --- Natural Language Date Parsing ---

var (
	reUrgentWord = regexp.MustCompile(`\b(now|asap|urgent)\b`)
	reWeekday    = regexp.MustCompile(`\b(?:by\s+)?(monday|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun|mon)\b`)
	reMonthDay   = regexp.MustCompile(`\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// parseNaturalDate resolves a natural-language date expression in text against
// the reference time. Rules are checked in a fixed priority order and the
// first match wins, so text containing several date phrases always resolves
// the same way.
func parseNaturalDate(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(text)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}

	switch {
	case reUrgentWord.MatchString(text):
		return now.Add(30 * time.Minute), true
	case has("today", "tonight"):
		return startOfDay(now), true
	case has("tomorrow"):
		return startOfDay(now).AddDate(0, 0, 1), true
	case has("next day"):
		return startOfDay(now).AddDate(0, 0, 2), true
	case has("this week", "by end of week"):
		return startOfDay(now).AddDate(0, 0, daysUntilFriday(now)), true
	case has("next week"):
		return now.AddDate(0, 0, 7), true
	case has("this month", "by end of month"):
		return lastDayOfMonth(now), true
	case has("next month"):
		return startOfDay(now).AddDate(0, 1, 0), true
	}

	if m := reWeekday.FindStringSubmatch(text); m != nil {
		target := weekdayNames[m[1]]
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return startOfDay(now).AddDate(0, 0, days), true
	}

	switch {
	case has("in a few hours", "few hours"):
		return now.Add(3 * time.Hour), true
	case has("in a few days", "few days"):
		return now.AddDate(0, 0, 3), true
	case has("in a week", "week from now"):
		return now.AddDate(0, 0, 7), true
	case has("in a month", "month from now"):
		return now.AddDate(0, 1, 0), true
	case has("end of day", "by end of day"):
		return endOfDayAt(now, 0), true
	case has("end of week", "by end of week"):
		return endOfDayAt(now, daysUntilFriday(now)), true
	}

	if m := reMonthDay.FindStringSubmatch(text); m != nil {
		month := monthNames[m[1]]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			date := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
			if date.Month() == month {
				if date.Before(startOfDay(now)) {
					date = date.AddDate(1, 0, 0)
				}
				return date, true
			}
		}
	}

	return time.Time{}, false
}

// daysUntilFriday returns the days from now to the next Friday, zero if now is
// already a Friday.
func daysUntilFriday(now time.Time) int {
	return (int(time.Friday) - int(now.Weekday()) + 7) % 7
}

func lastDayOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
}

func endOfDayAt(now time.Time, daysAhead int) time.Time {
	d := startOfDay(now).AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, d.Location())
}
