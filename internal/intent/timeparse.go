package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default time of day for reminders that name no hour
const (
	DefaultReminderHour   = 9
	DefaultReminderMinute = 0
)

var (
	zhHour     = regexp.MustCompile(`(\d{1,2})\s*点`)
	zhMinute   = regexp.MustCompile(`(\d{1,2})\s*分`)
	enClock    = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	enMeridiem = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`)
	enAt       = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\b`)
	bareNumber = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// TimeParseWarning reports that a reminder time was not understood and the
// default was used instead. It is informational; parsing still succeeds.
type TimeParseWarning struct {
	Input  string
	Reason string
}

func (w *TimeParseWarning) Error() string {
	return fmt.Sprintf("could not parse reminder time %q (%s), using default %02d:%02d",
		w.Input, w.Reason, DefaultReminderHour, DefaultReminderMinute)
}

// ParseReminderTime resolves a spoken time ("明天9点", "后天8点30分",
// "tomorrow at 7pm", "18:30") against now. The result is always strictly
// after now: a time that has already passed moves to the next day. When
// no hour is given the reminder goes off at 09:00, or at the given minute
// past 9 when only a minute is named. The warning is non-nil
// when the text held something that could not be used.
func ParseReminderTime(now time.Time, text string) (time.Time, *TimeParseWarning) {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)

	days := 0
	switch {
	case strings.Contains(raw, "后天") || strings.Contains(lower, "day after tomorrow"):
		days = 2
	case strings.Contains(raw, "明天") || strings.Contains(lower, "tomorrow"):
		days = 1
	}

	hour, minute, found, reason := clockTime(raw)
	var warning *TimeParseWarning
	if found && (hour > 23 || minute > 59) {
		warning = &TimeParseWarning{Input: raw, Reason: fmt.Sprintf("%d:%02d is out of range", hour, minute)}
		found = false
	} else if !found && reason != "" {
		warning = &TimeParseWarning{Input: raw, Reason: reason}
	}
	if !found {
		hour, minute = DefaultReminderHour, DefaultReminderMinute
	}

	base := now.AddDate(0, 0, days)
	target := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target, warning
}

// clockTime extracts an hour and minute. reason is set when the text is
// non-empty but held nothing recognizable.
func clockTime(raw string) (hour, minute int, found bool, reason string) {
	if m := zhHour.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if mm := zhMinute.FindStringSubmatch(raw); mm != nil {
			minute, _ = strconv.Atoi(mm[1])
		} else if strings.Contains(raw, "半") {
			minute = 30
		}
		if hour < 12 && (strings.Contains(raw, "下午") || strings.Contains(raw, "晚上")) {
			hour += 12
		}
		return hour, minute, true, ""
	}

	if mm := zhMinute.FindStringSubmatch(raw); mm != nil {
		minute, _ = strconv.Atoi(mm[1])
		return DefaultReminderHour, minute, true, ""
	}

	if m := enClock.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return applyMeridiem(hour, m[3]), minute, true, ""
	}
	if m := enMeridiem.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		return applyMeridiem(hour, m[2]), 0, true, ""
	}
	if m := enAt.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		return hour, 0, true, ""
	}
	if m := bareNumber.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		return hour, 0, true, ""
	}

	if raw == "" || onlyDayWords(raw) {
		return 0, 0, false, ""
	}
	return 0, 0, false, "no hour found"
}

func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// onlyDayWords reports whether the text names a day and nothing else
func onlyDayWords(raw string) bool {
	rest := strings.ToLower(raw)
	for _, w := range []string{"后天", "明天", "今天", "the day after tomorrow", "tomorrow", "today", "每天", "every day", "daily"} {
		rest = strings.ReplaceAll(rest, w, "")
	}
	return strings.TrimSpace(rest) == ""
}
