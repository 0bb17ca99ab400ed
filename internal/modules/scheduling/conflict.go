// README: Conflict predicate between a candidate ride and a driver's existing bookings.
package scheduling

import "time"

// withinShift reports whether the ride lies inside the driver's shift. A
// wall-clock shift is anchored to the date the ride starts; an overnight one is
// also tried from the previous evening so its early-morning half is usable.
func withinShift(r compiledRequest, d compiledDriver) bool {
	if covers(d.shift, r.start, r.span) {
		return true
	}
	return d.shift.wraps() && covers(d.shift, r.start.AddDate(0, 0, -1), r.span)
}

func covers(w window, day time.Time, s span) bool {
	start, end := w.on(day)
	return !s.start.Before(start) && !s.end.After(end)
}

// hitsBreak reports whether the ride intersects any break of the driver on a
// day the ride touches. At most eight days are checked; by then every weekday
// has been seen.
func hitsBreak(r compiledRequest, d compiledDriver) bool {
	y, m, dd := r.start.Date()
	day := time.Date(y, m, dd, 0, 0, 0, 0, r.start.Location())
	for i := 0; i < 8 && day.Before(r.end); i++ {
		for _, b := range d.breaks[day.Weekday()] {
			bs, be := b.on(day)
			if r.start.Before(be) && bs.Before(r.end) {
				return true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

// overlaps compares a candidate ride with one booking already held by the same driver.
func overlaps(rule OverlapRule, candidate, booked span) bool {
	if rule == OverlapInterval {
		return candidate.start.Before(booked.end) && booked.start.Before(candidate.end)
	}
	return strictlyInside(candidate.start, booked) || strictlyInside(candidate.end, booked)
}

func strictlyInside(t time.Time, s span) bool {
	return s.start.Before(t) && t.Before(s.end)
}
