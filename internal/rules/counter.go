package rules

import (
	"fmt"
	"time"
)

// BlockReason identifies which cap stopped a send.
type BlockReason string

const (
	ReasonDailyLimit  BlockReason = "daily_limit"
	ReasonWeeklyLimit BlockReason = "weekly_limit"
)

// SendDecision is the outcome of CanSend.
type SendDecision struct {
	Allowed bool        `json:"allowed"`
	Reason  BlockReason `json:"reason,omitempty"`
}

// CanSend reports whether one more feedback fits the limits. Daily is checked first.
func CanSend(limits EffectiveLimits, sentToday, sentThisWeek int) SendDecision {
	if !limits.Enabled {
		return SendDecision{Allowed: true}
	}
	if sentToday >= limits.MaxPerDay {
		return SendDecision{Allowed: false, Reason: ReasonDailyLimit}
	}
	if sentThisWeek >= limits.MaxPerWeek {
		return SendDecision{Allowed: false, Reason: ReasonWeeklyLimit}
	}
	return SendDecision{Allowed: true}
}

// Remaining returns how many sends are left today and this week. Both are -1 when unlimited.
func Remaining(limits EffectiveLimits, sentToday, sentThisWeek int) (int, int) {
	if !limits.Enabled {
		return -1, -1
	}
	day := limits.MaxPerDay - sentToday
	week := limits.MaxPerWeek - sentThisWeek
	if week < day {
		day = week
	}
	return max(day, 0), max(week, 0)
}

// ResetHint is the user-facing reset cadence for a block reason.
func ResetHint(reason BlockReason) string {
	switch reason {
	case ReasonDailyLimit:
		return "volte amanhã"
	case ReasonWeeklyLimit:
		return "limite semanal"
	default:
		return ""
	}
}

// SendWindows are the calendar bounds used for counting sends.
type SendWindows struct {
	DayStart  time.Time
	DayEnd    time.Time
	WeekStart time.Time
	WeekEnd   time.Time
}

// Windows computes the current calendar day and ISO week (Monday start) in loc.
func Windows(now time.Time, loc *time.Location) SendWindows {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	// Weekday: Sunday=0; ISO weeks start on Monday.
	offset := (int(local.Weekday()) + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -offset)
	return SendWindows{
		DayStart:  dayStart,
		DayEnd:    dayStart.AddDate(0, 0, 1),
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 7),
	}
}

// DayKey formats the window's day as used in counter keys.
func (w SendWindows) DayKey() string {
	return w.DayStart.Format("2006-01-02")
}

// WeekKey formats the window's ISO week, e.g. 2026-W42.
func (w SendWindows) WeekKey() string {
	year, week := w.WeekStart.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
