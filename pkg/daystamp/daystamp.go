// Copyright 2025 Certen Protocol
//
// Package daystamp implements the ordinal-day calendar arithmetic used to
// encode dates as range-provable integers (spec §4.4). Day 1 is 1 January,
// year 1, under the proleptic Gregorian calendar.
package daystamp

import "fmt"

var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// IsLeap reports whether y is a leap year under the proleptic Gregorian
// calendar.
func IsLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// Ordinal returns the ordinal day number of (y, m, d): 1 January, year 1,
// is day 1. m is 1-12, d is 1-31.
func Ordinal(y, m, d int) int {
	days := 365*(y-1) + (y-1)/4 - (y-1)/100 + (y-1)/400
	days += daysBeforeMonth[m]
	if m > 2 && IsLeap(y) {
		days++
	}
	days += d
	return days
}

// DaysToBeAge returns the number of days between today (y, m, d) and the
// date exactly age years earlier, clamping 29 February to 28 February when
// the earlier year is not a leap year. It aborts (returns an error) if the
// resulting ordinal would not be strictly in the past, since the protocol
// only uses this for "at least this old" predicates.
func DaysToBeAge(y, m, d, age int) (int, error) {
	pastYear := y - age
	pastDay := d
	if m == 2 && d == 29 && !IsLeap(pastYear) {
		pastDay = 28
	}
	today := Ordinal(y, m, d)
	past := Ordinal(pastYear, m, pastDay)
	if past >= today {
		return 0, fmt.Errorf("daystamp: reference date %04d-%02d-%02d is not before today %04d-%02d-%02d", pastYear, m, pastDay, y, m, d)
	}
	return today - past, nil
}
