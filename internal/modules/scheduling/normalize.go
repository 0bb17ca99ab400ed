// README: Timestamp normalization; turns request and shift strings into comparable instants.
package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ridesched/internal/types"
)

var requestLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const wallClockLayout = "15:04"

// parseInstant parses a full date-time. Values without an offset are read in loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range requestLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// clock is either a wall-clock time of day or an absolute instant.
type clock struct {
	absolute bool
	at       time.Time
	hour     int
	minute   int
}

func parseClock(s string, loc *time.Location) (clock, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(wallClockLayout, s); err == nil {
		return clock{hour: t.Hour(), minute: t.Minute()}, nil
	}
	t, err := parseInstant(s, loc)
	if err != nil {
		return clock{}, err
	}
	return clock{absolute: true, at: t}, nil
}

// on anchors the clock to the calendar date of day, in day's location.
func (c clock) on(day time.Time) time.Time {
	if c.absolute {
		return c.at
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, c.hour, c.minute, 0, 0, day.Location())
}

func (c clock) minutes() int { return c.hour*60 + c.minute }

// window is a shift or break expressed in clocks.
type window struct {
	start clock
	end   clock
}

// on resolves the window against the date of day. A wall-clock end that is
// not after the start rolls over to the following day.
func (w window) on(day time.Time) (time.Time, time.Time) {
	start, end := w.start.on(day), w.end.on(day)
	if !w.end.absolute && !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// wraps reports whether a wall-clock window runs past midnight.
func (w window) wraps() bool {
	return !w.start.absolute && !w.end.absolute && w.end.minutes() <= w.start.minutes()
}

type span struct {
	start time.Time
	end   time.Time
}

type compiledRequest struct {
	span
}

type compiledDriver struct {
	shift  window
	breaks [7][]window
}

// compile validates every record and returns the normalized forms used by the
// search. All problems are reported together.
func compile(requests []RideRequest, drivers []Driver, loc *time.Location) ([]compiledRequest, []compiledDriver, error) {
	var errs []error

	reqs := make([]compiledRequest, len(requests))
	seenReq := make(map[types.ID]int, len(requests))
	for i, r := range requests {
		if r.ID == "" {
			errs = append(errs, invalid("requests", i, "missing id"))
		} else if j, dup := seenReq[r.ID]; dup {
			errs = append(errs, invalid("requests", i, "duplicate id %q (first at %d)", r.ID, j))
		} else {
			seenReq[r.ID] = i
		}
		start, err := parseInstant(r.StartTime, loc)
		if err != nil {
			errs = append(errs, invalid("requests", i, "start_time: %v", err))
			continue
		}
		end, err := parseInstant(r.EndTime, loc)
		if err != nil {
			errs = append(errs, invalid("requests", i, "end_time: %v", err))
			continue
		}
		if !end.After(start) {
			errs = append(errs, invalid("requests", i, "end_time %s is not after start_time %s", r.EndTime, r.StartTime))
			continue
		}
		reqs[i] = compiledRequest{span{start: start, end: end}}
	}

	drvs := make([]compiledDriver, len(drivers))
	seenDrv := make(map[types.ID]int, len(drivers))
	for i, d := range drivers {
		if d.ID == "" {
			errs = append(errs, invalid("drivers", i, "missing id"))
		} else if j, dup := seenDrv[d.ID]; dup {
			errs = append(errs, invalid("drivers", i, "duplicate id %q (first at %d)", d.ID, j))
		} else {
			seenDrv[d.ID] = i
		}
		cd, err := compileDriver(d, loc)
		if err != nil {
			errs = append(errs, invalid("drivers", i, "%v", err))
			continue
		}
		drvs[i] = cd
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return reqs, drvs, nil
}

func compileDriver(d Driver, loc *time.Location) (compiledDriver, error) {
	var cd compiledDriver
	start, err := parseClock(d.ShiftStart, loc)
	if err != nil {
		return cd, fmt.Errorf("shift_start: %w", err)
	}
	end, err := parseClock(d.ShiftEnd, loc)
	if err != nil {
		return cd, fmt.Errorf("shift_end: %w", err)
	}
	switch {
	case start.absolute && end.absolute && !end.at.After(start.at):
		return cd, fmt.Errorf("shift_end %s is not after shift_start %s", d.ShiftEnd, d.ShiftStart)
	case !start.absolute && !end.absolute && start.minutes() == end.minutes():
		return cd, fmt.Errorf("shift_start equals shift_end (%s)", d.ShiftStart)
	}
	cd.shift = window{start: start, end: end}

	for j, b := range d.Breaks {
		if b.Weekday < time.Sunday || b.Weekday > time.Saturday {
			return cd, fmt.Errorf("breaks[%d]: weekday %d out of range", j, b.Weekday)
		}
		bs, err := time.Parse(wallClockLayout, strings.TrimSpace(b.Start))
		if err != nil {
			return cd, fmt.Errorf("breaks[%d].start: want HH:MM, got %q", j, b.Start)
		}
		be, err := time.Parse(wallClockLayout, strings.TrimSpace(b.End))
		if err != nil {
			return cd, fmt.Errorf("breaks[%d].end: want HH:MM, got %q", j, b.End)
		}
		if !be.After(bs) {
			return cd, fmt.Errorf("breaks[%d]: end %s is not after start %s", j, b.End, b.Start)
		}
		cd.breaks[b.Weekday] = append(cd.breaks[b.Weekday], window{
			start: clock{hour: bs.Hour(), minute: bs.Minute()},
			end:   clock{hour: be.Hour(), minute: be.Minute()},
		})
	}
	return cd, nil
}
