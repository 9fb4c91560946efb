package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedTimeError is returned when a clock-time string is not a valid HH:MM value.
type MalformedTimeError struct {
	Value  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Value, e.Reason)
}

// ToMinutes converts an "HH:MM" time of day into minutes since midnight.
func ToMinutes(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, &MalformedTimeError{Value: value, Reason: "missing ':' separator"}
	}

	hour, err := parseClockField(hh)
	if err != nil {
		return 0, &MalformedTimeError{Value: value, Reason: "hour " + err.Error()}
	}
	minute, err := parseClockField(mm)
	if err != nil {
		return 0, &MalformedTimeError{Value: value, Reason: "minute " + err.Error()}
	}

	if hour > 23 {
		return 0, &MalformedTimeError{Value: value, Reason: "hour out of range"}
	}
	if minute > 59 {
		return 0, &MalformedTimeError{Value: value, Reason: "minute out of range"}
	}

	return hour*60 + minute, nil
}

func parseClockField(s string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("must have one or two digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("must be a non-negative integer")
		}
	}
	return strconv.Atoi(s)
}

// IntervalWithin reports whether [courseStart, courseEnd] lies entirely inside
// [slotStart, slotEnd]. Partial overlap does not count.
func IntervalWithin(courseStart, courseEnd, slotStart, slotEnd int) bool {
	return courseStart >= slotStart && courseEnd <= slotEnd
}

// IsClock reports whether s parses with ToMinutes.
func IsClock(s string) bool {
	_, err := ToMinutes(s)
	return err == nil
}
