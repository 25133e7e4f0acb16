package events

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/pkg/logger"
)

const (
	windowDaysBefore = 7
	windowDaysAfter  = 30
)

// Calendar answers queries about scheduled macro events. It prefers a
// curated JSON calendar and falls back to a heuristic schedule of the
// recurring US releases when none is loaded.
type Calendar struct {
	log    *logger.Logger
	events []contracts.Event
}

// NewCalendar builds a calendar over a fixed event set.
func NewCalendar(log *logger.Logger, events []contracts.Event) *Calendar {
	sorted := make([]contracts.Event, len(events))
	copy(sorted, events)
	sortEvents(sorted)
	return &Calendar{log: log, events: sorted}
}

// LoadCalendar reads a JSON array of {name, date, importance} records.
// Dates are "2006-01-02". An empty path yields a calendar that serves
// the heuristic schedule only.
func LoadCalendar(log *logger.Logger, path string) (*Calendar, error) {
	if path == "" {
		return NewCalendar(log, nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event calendar: %w", err)
	}

	var raw []struct {
		Name       string `json:"name"`
		Date       string `json:"date"`
		Importance int    `json:"importance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse event calendar: %w", err)
	}

	events := make([]contracts.Event, 0, len(raw))
	for _, r := range raw {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", r.Date, err)
		}
		importance := r.Importance
		if importance < 1 {
			importance = 1
		}
		if importance > 5 {
			importance = 5
		}
		events = append(events, contracts.Event{
			Name:       r.Name,
			Date:       date.UTC(),
			Importance: importance,
		})
	}

	log.WithField("path", path).Infof("loaded %d calendar events", len(events))
	return NewCalendar(log, events), nil
}

// EventsFor returns events inside the [-7, +30]-day window around target,
// ordered by date then name. When no curated events land in the window,
// the heuristic schedule for the surrounding months is used instead, so a
// calendar curated for one period keeps serving adjustments everywhere
// else.
func (c *Calendar) EventsFor(target time.Time) []contracts.Event {
	target = dateOnly(target)

	out := eventsInWindow(c.events, target)
	if len(out) == 0 {
		out = eventsInWindow(heuristicSchedule(target), target)
	}
	sortEvents(out)
	return out
}

func eventsInWindow(source []contracts.Event, target time.Time) []contracts.Event {
	out := make([]contracts.Event, 0, 4)
	for _, e := range source {
		days := e.DaysFrom(target)
		if days >= -windowDaysBefore && days <= windowDaysAfter {
			out = append(out, e)
		}
	}
	return out
}

// heuristicSchedule approximates the recurring US macro releases for the
// month of target and the month after: the FOMC decision on the third
// Wednesday, CPI on the 10th, and nonfarm payrolls on the first Friday.
func heuristicSchedule(target time.Time) []contracts.Event {
	events := make([]contracts.Event, 0, 6)
	for m := 0; m < 2; m++ {
		month := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, 0)
		events = append(events,
			contracts.Event{Name: "FOMC decision", Date: nthWeekday(month, time.Wednesday, 3), Importance: 5},
			contracts.Event{Name: "CPI release", Date: month.AddDate(0, 0, 9), Importance: 4},
			contracts.Event{Name: "Nonfarm payrolls", Date: nthWeekday(month, time.Friday, 1), Importance: 3},
		)
	}
	return events
}

// nthWeekday returns the nth occurrence of a weekday within the month
// that contains monthStart (which must be the 1st).
func nthWeekday(monthStart time.Time, weekday time.Weekday, n int) time.Time {
	offset := (int(weekday) - int(monthStart.Weekday()) + 7) % 7
	return monthStart.AddDate(0, 0, offset+(n-1)*7)
}

func sortEvents(events []contracts.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Name < events[j].Name
	})
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
