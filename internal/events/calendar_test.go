package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/pkg/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	payload := `[
		{"name": "FOMC decision", "date": "2026-09-16", "importance": 5},
		{"name": "CPI release", "date": "2026-09-10", "importance": 9},
		{"name": "Minor auction", "date": "2026-09-03", "importance": 0}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cal, err := LoadCalendar(logger.NewNop(), path)
	require.NoError(t, err)

	got := cal.EventsFor(date(2026, time.September, 8))
	require.Len(t, got, 3)
	assert.Equal(t, "Minor auction", got[0].Name)
	assert.Equal(t, 1, got[0].Importance, "importance is clamped to [1,5]")
	assert.Equal(t, 5, got[1].Importance, "importance is clamped to [1,5]")
}

func TestLoadCalendar_EmptyPathUsesHeuristics(t *testing.T) {
	cal, err := LoadCalendar(logger.NewNop(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, cal.EventsFor(date(2026, time.March, 15)))
}

func TestLoadCalendar_BadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"x","date":"16/09/2026","importance":3}]`), 0o644))

	_, err := LoadCalendar(logger.NewNop(), path)
	assert.Error(t, err)
}

func TestEventsFor_Window(t *testing.T) {
	target := date(2026, time.June, 15)
	cal := NewCalendar(logger.NewNop(), []contracts.Event{
		{Name: "too far past", Date: date(2026, time.June, 7), Importance: 3},
		{Name: "window start", Date: date(2026, time.June, 8), Importance: 3},
		{Name: "window end", Date: date(2026, time.July, 15), Importance: 3},
		{Name: "too far future", Date: date(2026, time.July, 16), Importance: 3},
	})

	got := cal.EventsFor(target)
	require.Len(t, got, 2)
	assert.Equal(t, "window start", got[0].Name)
	assert.Equal(t, "window end", got[1].Name)
}

func TestEventsFor_HeuristicsFillEmptyWindow(t *testing.T) {
	// A calendar curated for a distant period must not silence every
	// other date; the heuristic schedule covers the gap.
	cal := NewCalendar(logger.NewNop(), []contracts.Event{
		{Name: "far future summit", Date: date(2099, time.January, 15), Importance: 5},
	})

	got := cal.EventsFor(date(2024, time.June, 12))
	require.NotEmpty(t, got)

	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.Name
	}
	assert.Contains(t, names, "FOMC decision")
	assert.NotContains(t, names, "far future summit")
}

func TestEventsFor_CuratedWindowSuppressesHeuristics(t *testing.T) {
	curated := contracts.Event{Name: "ECB decision", Date: date(2026, time.June, 18), Importance: 4}
	cal := NewCalendar(logger.NewNop(), []contracts.Event{curated})

	got := cal.EventsFor(date(2026, time.June, 15))
	require.Len(t, got, 1)
	assert.Equal(t, "ECB decision", got[0].Name)
}

func TestEventsFor_SortedByDateThenName(t *testing.T) {
	target := date(2026, time.June, 15)
	cal := NewCalendar(logger.NewNop(), []contracts.Event{
		{Name: "b", Date: date(2026, time.June, 20), Importance: 2},
		{Name: "a", Date: date(2026, time.June, 20), Importance: 2},
		{Name: "c", Date: date(2026, time.June, 16), Importance: 2},
	})

	got := cal.EventsFor(target)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestHeuristicSchedule(t *testing.T) {
	// September 2026: the 1st is a Tuesday, so the first Friday is the
	// 4th and the third Wednesday the 16th.
	events := heuristicSchedule(date(2026, time.September, 8))

	byName := map[string]time.Time{}
	for _, e := range events[:3] {
		byName[e.Name] = e.Date
	}
	assert.Equal(t, date(2026, time.September, 16), byName["FOMC decision"])
	assert.Equal(t, date(2026, time.September, 10), byName["CPI release"])
	assert.Equal(t, date(2026, time.September, 4), byName["Nonfarm payrolls"])

	// The schedule covers the following month too.
	require.Len(t, events, 6)
	assert.Equal(t, time.October, events[3].Date.Month())
}

func TestHeuristicSchedule_Weights(t *testing.T) {
	events := heuristicSchedule(date(2026, time.September, 8))

	byName := map[string]int{}
	for _, e := range events {
		byName[e.Name] = e.Importance
	}
	assert.Equal(t, 5, byName["FOMC decision"])
	assert.Equal(t, 4, byName["CPI release"])
	assert.Equal(t, 3, byName["Nonfarm payrolls"])
}

func TestNthWeekday(t *testing.T) {
	// June 2026 starts on a Monday.
	june := date(2026, time.June, 1)
	assert.Equal(t, date(2026, time.June, 3), nthWeekday(june, time.Wednesday, 1))
	assert.Equal(t, date(2026, time.June, 17), nthWeekday(june, time.Wednesday, 3))
	assert.Equal(t, date(2026, time.June, 5), nthWeekday(june, time.Friday, 1))
}

func TestCalculateAdjustment(t *testing.T) {
	target := date(2026, time.June, 15)

	t.Run("event on the day contributes full importance", func(t *testing.T) {
		got := CalculateAdjustment(target, []contracts.Event{
			{Name: "FOMC", Date: target, Importance: 5},
		})
		assert.InDelta(t, 5.0, got, 1e-9)
	})

	t.Run("contribution fades with distance", func(t *testing.T) {
		near := CalculateAdjustment(target, []contracts.Event{
			{Name: "FOMC", Date: target.AddDate(0, 0, 1), Importance: 5},
		})
		far := CalculateAdjustment(target, []contracts.Event{
			{Name: "FOMC", Date: target.AddDate(0, 0, 6), Importance: 5},
		})
		assert.Greater(t, near, far)
		assert.Greater(t, far, 0.0)
	})

	t.Run("events outside seven days are ignored", func(t *testing.T) {
		got := CalculateAdjustment(target, []contracts.Event{
			{Name: "FOMC", Date: target.AddDate(0, 0, 8), Importance: 5},
		})
		assert.Equal(t, 0.0, got)
	})

	t.Run("total is clipped at ten", func(t *testing.T) {
		stack := []contracts.Event{
			{Name: "a", Date: target, Importance: 5},
			{Name: "b", Date: target, Importance: 5},
			{Name: "c", Date: target, Importance: 5},
		}
		assert.Equal(t, 10.0, CalculateAdjustment(target, stack))
	})

	t.Run("no events means no adjustment", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateAdjustment(target, nil))
	})
}
