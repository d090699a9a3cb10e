package gamification

import (
	"errors"
	"time"
)

// DayLayout is the calendar-day key used for streaks and quests.
const DayLayout = "2006-01-02"

var (
	ErrNoFreezes = errors.New("no streak freezes remaining")
	ErrBadDay    = errors.New("invalid day")
)

type Streak struct {
	Current          int    `json:"currentStreak"`
	Longest          int    `json:"longestStreak"`
	LastLogged       string `json:"lastLoggedDate,omitempty"`
	FreezesRemaining int    `json:"freezesRemaining"`
	FreezeActiveDate string `json:"freezeActiveDate,omitempty"`
}

type StreakChange struct {
	Advanced   bool `json:"advanced"`
	Reset      bool `json:"reset"`
	FreezeUsed bool `json:"freezeUsed"`
}

func Day(t time.Time) string { return t.Format(DayLayout) }

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, ErrBadDay
	}
	return t, nil
}

func addDays(day string, n int) string {
	t, err := parseDay(day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DayLayout)
}

func daysBetween(from, to string) (int, error) {
	a, err := parseDay(from)
	if err != nil {
		return 0, err
	}
	b, err := parseDay(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}

// RecordLog applies the first qualifying log of a day. A second log on the
// same day, or a log dated before the last one, changes nothing.
func (s Streak) RecordLog(day string) (Streak, StreakChange, error) {
	if _, err := parseDay(day); err != nil {
		return s, StreakChange{}, err
	}
	var ch StreakChange
	if s.LastLogged == "" {
		s.Current = 1
		ch.Advanced = true
	} else {
		gap, err := daysBetween(s.LastLogged, day)
		if err != nil {
			return s, StreakChange{}, err
		}
		switch {
		case gap <= 0:
			return s, StreakChange{}, nil
		case gap == 1:
			s.Current++
			ch.Advanced = true
		case gap == 2 && s.FreezesRemaining > 0 && s.FreezeActiveDate == addDays(s.LastLogged, 1):
			s.Current++
			s.FreezesRemaining--
			s.FreezeActiveDate = ""
			ch.Advanced = true
			ch.FreezeUsed = true
		default:
			// Counting resumes from the next consecutive day.
			s.Current = 0
			ch.Reset = true
		}
	}
	s.LastLogged = day
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, ch, nil
}

// ActivateFreeze protects the calendar day after today. The credit is only
// spent if the freeze ends up bridging a gap.
func (s Streak) ActivateFreeze(today string) (Streak, error) {
	if _, err := parseDay(today); err != nil {
		return s, err
	}
	if s.FreezesRemaining <= 0 {
		return s, ErrNoFreezes
	}
	s.FreezeActiveDate = addDays(today, 1)
	return s, nil
}

// Effective is the streak as it stands on today, before any log: a streak
// whose gap can no longer be bridged reads as zero.
func (s Streak) Effective(today string) int {
	if s.LastLogged == "" {
		return 0
	}
	gap, err := daysBetween(s.LastLogged, today)
	if err != nil {
		return s.Current
	}
	switch {
	case gap <= 1:
		return s.Current
	case gap == 2 && s.FreezesRemaining > 0 && s.FreezeActiveDate == addDays(s.LastLogged, 1):
		return s.Current
	}
	return 0
}
