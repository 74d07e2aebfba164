package edgar

import (
	"fmt"
	"strings"
	"time"
)

// Window is the operating window gate: polling only runs on configured
// weekdays inside a time-of-day range, evaluated in a fixed reference zone.
// Outside the window a poll cycle is a documented no-op, not an error.
type Window struct {
	loc      *time.Location
	days     map[time.Weekday]bool
	startMin int
	endMin   int
	disabled bool
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// NewWindow builds a window from HH:MM bounds and a comma-separated weekday
// list. A disabled window admits every instant (backfill/testing override).
func NewWindow(timezone, start, end, days string, disabled bool) (*Window, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid window timezone %q: %w", timezone, err)
	}

	startMin, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("invalid window start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("invalid window end: %w", err)
	}
	if endMin <= startMin {
		return nil, fmt.Errorf("window end %s must be after start %s", end, start)
	}

	daySet := make(map[time.Weekday]bool)
	for _, name := range strings.Split(days, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q", name)
		}
		daySet[day] = true
	}
	if len(daySet) == 0 {
		return nil, fmt.Errorf("window needs at least one weekday")
	}

	return &Window{
		loc:      loc,
		days:     daySet,
		startMin: startMin,
		endMin:   endMin,
		disabled: disabled,
	}, nil
}

// Contains reports whether t falls inside the window. The start bound is
// inclusive, the end bound exclusive.
func (w *Window) Contains(t time.Time) bool {
	if w.disabled {
		return true
	}

	local := t.In(w.loc)
	if !w.days[local.Weekday()] {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes >= w.startMin && minutes < w.endMin
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
