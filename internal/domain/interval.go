package domain

import "time"

// DateInterval is an immutable inclusive date range. Both bounds are
// normalized to UTC midnight.
type DateInterval struct {
	start time.Time
	end   time.Time
}

// NewDateInterval creates an interval. The end date must not precede the
// start date; callers representing an unbounded future span normalize the
// end to their closing or as-of date first.
func NewDateInterval(start, end time.Time) (DateInterval, error) {
	s := StartOfDay(start)
	e := StartOfDay(end)

	if e.Before(s) {
		return DateInterval{}, ErrInvalidInterval
	}

	return DateInterval{start: s, end: e}, nil
}

// Start returns the inclusive start date.
func (i DateInterval) Start() time.Time {
	return i.start
}

// End returns the inclusive end date.
func (i DateInterval) End() time.Time {
	return i.end
}

// DaysInclusive returns the number of days the interval covers, counting
// both bounds.
func (i DateInterval) DaysInclusive() int {
	return DaysInclusiveBetween(i.start, i.end)
}

// Contains reports whether the given date falls inside the interval.
func (i DateInterval) Contains(date time.Time) bool {
	d := StartOfDay(date)

	return !d.Before(i.start) && !d.After(i.end)
}

// ContainsPortionOf reports whether the two intervals overlap on at least
// one day.
func (i DateInterval) ContainsPortionOf(other DateInterval) bool {
	return !i.start.After(other.end) && !other.start.After(i.end)
}

// StartOfDay truncates a time to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusiveBetween counts the days from one date to another, both
// inclusive. The order of the arguments matters: a "to" before "from"
// yields a non-positive count.
func DaysInclusiveBetween(from, to time.Time) int {
	f := StartOfDay(from)
	t := StartOfDay(to)

	return int(t.Sub(f).Hours()/24) + 1
}
