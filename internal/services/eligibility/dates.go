package eligibility

import (
	"math"
	"time"
)

// ageInYears returns the calendar age at the reference date: the difference
// in years, minus one if the birthday has not yet occurred that year.
func ageInYears(dateOfBirth, at time.Time) int {
	years := at.Year() - dateOfBirth.Year()
	if at.Month() < dateOfBirth.Month() ||
		(at.Month() == dateOfBirth.Month() && at.Day() < dateOfBirth.Day()) {
		years--
	}
	return years
}

// daysBetweenCeil returns the number of days between two instants, rounding
// any partial day up. Argument order does not matter.
func daysBetweenCeil(a, b time.Time) int {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// monthsBetween returns whole calendar months from one date to another,
// ignoring the day of month. A transfusion on Jan 31 is one month old on
// Feb 1.
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// weeksSince returns full weeks elapsed from a date to the reference date,
// rounding down.
func weeksSince(from, at time.Time) int {
	return int(math.Floor(at.Sub(from).Hours() / (24 * 7)))
}
