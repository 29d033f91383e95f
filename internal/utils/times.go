package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ParseClockMinutes converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Hours past 23 are accepted since GTFS times may run beyond midnight.
func ParseClockMinutes(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", value)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	if len(parts) == 3 {
		seconds, err := strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("invalid seconds in %q", value)
		}
	}

	return hours*60 + minutes, nil
}

// ParseTimeOfDay parses a rider-supplied "HH:MM" clock time within a single day.
func ParseTimeOfDay(value string) (int, error) {
	minutes, err := ParseClockMinutes(value)
	if err != nil {
		return 0, err
	}
	if minutes >= minutesPerDay {
		return 0, fmt.Errorf("invalid time %q, hours must be below 24", value)
	}
	return minutes, nil
}

// DurationMinutes returns arrival minus departure in minutes, adding a day when
// the raw difference is negative because the trip crossed midnight.
func DurationMinutes(departure, arrival string) (int, error) {
	dep, err := ParseClockMinutes(departure)
	if err != nil {
		return 0, err
	}
	arr, err := ParseClockMinutes(arrival)
	if err != nil {
		return 0, err
	}

	d := arr - dep
	if d < 0 {
		d += minutesPerDay
	}
	return d, nil
}

// FormatDuration renders a whole number of minutes, e.g. "30 min" or "1 hr 5 min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d hr", minutes/60)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}

// FormatGTFSTime renders an offset from service-day midnight as "HH:MM:SS".
func FormatGTFSTime(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatClockMinutes renders minutes since midnight as "HH:MM".
func FormatClockMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
