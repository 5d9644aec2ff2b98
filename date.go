package tofs

import (
	"time"
)

// ParseDate reads the three date bytes of a directory entry or of the label:
//  day:   1-31
//  month: 1-12
//  year:  two digits, values below 80 are 20xx, the others 19xx
// It returns a time.Time which has always a time of 00:00:00 UTC.
//
// As day or month 0 are invalid, time.Time{} is returned in that case so that
// time.Time.IsZero() can be used. Entries written without a date contain 0xFF bytes and
// are reported as zero too.
//
// Note that a day which does not exist in the month, like February 31, rolls over into the
// next month just like time.Date does it.
func ParseDate(day, month, year uint8) time.Time {
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}
	}

	return time.Date(fullYear(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads the three time bytes of an extended entry.
// It returns a time.Time which has always a date of January 1, year 1.
// Values out of range are limited to 23:59:59.
func ParseTime(hour, min, sec uint8) time.Time {
	if hour > 23 || min > 59 || sec > 59 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}
	return time.Date(1, 1, 1, int(hour), int(min), int(sec), 0, time.UTC)
}

func fullYear(year uint8) int {
	if year < 80 {
		return 2000 + int(year)
	}
	return 1900 + int(year)
}

// encodeDate is the reverse of ParseDate. Only the last two digits of the year are kept.
func encodeDate(t time.Time) (day, month, year uint8) {
	return uint8(t.Day()), uint8(t.Month()), uint8(t.Year() % 100)
}

func encodeTime(t time.Time) (hour, min, sec uint8) {
	return uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second())
}

// combine puts a date from ParseDate and a time from ParseTime together.
func combine(date, clock time.Time) time.Time {
	if date.IsZero() {
		return time.Time{}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
