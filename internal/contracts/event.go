package contracts

import "time"

// Event is a scheduled macro event from the calendar. The calendar loader
// is the only producer; the core never accepts unstructured event input.
type Event struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Importance int       `json:"importance"` // 1 (minor) .. 5 (major)
}

// DaysFrom returns the signed day distance of the event from target
// (positive when the event is in the future).
func (e Event) DaysFrom(target time.Time) int {
	return int(e.Date.Sub(target).Hours() / 24)
}
