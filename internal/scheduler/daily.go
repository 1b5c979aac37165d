package scheduler

import (
	"fmt"
	"time"
)

// TriggerTime is a wall-clock minute of the day.
type TriggerTime struct {
	Hour   int
	Minute int
}

// ParseTriggerTime parses a 24h "HH:MM" string.
func ParseTriggerTime(s string) (TriggerTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TriggerTime{}, fmt.Errorf("invalid trigger time %q: want HH:MM", s)
	}
	return TriggerTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TriggerTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Daily fires at most once per calendar day, during the trigger minute in its location.
type Daily struct {
	at        TriggerTime
	loc       *time.Location
	lastFired string
}

const dateLayout = "2006-01-02"

func NewDaily(at TriggerTime, loc *time.Location) *Daily {
	if loc == nil {
		loc = time.Local
	}
	return &Daily{at: at, loc: loc}
}

// Due reports whether now falls in the trigger minute of a day that has not fired yet.
func (d *Daily) Due(now time.Time) bool {
	local := now.In(d.loc)
	if local.Hour() != d.at.Hour || local.Minute() != d.at.Minute {
		return false
	}
	return local.Format(dateLayout) != d.lastFired
}

func (d *Daily) MarkFired(now time.Time) {
	d.lastFired = now.In(d.loc).Format(dateLayout)
}

// Next returns the start of the next trigger minute strictly after now, skipping a day already fired.
func (d *Daily) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.at.Hour, d.at.Minute, 0, 0, d.loc)
	if !next.After(local) || next.Format(dateLayout) == d.lastFired {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.at.Hour, d.at.Minute, 0, 0, d.loc)
	}
	return next
}
