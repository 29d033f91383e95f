package utils

import (
	"database/sql"

	"github.com/OneBusAway/go-gtfs"
)

// NullStringOrEmpty returns the string value if valid, otherwise returns an empty string
func NullStringOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullStringOrDefault returns the string when it is set and non-empty.
func NullStringOrDefault(ns sql.NullString, defaultValue string) string {
	if ns.Valid && ns.String != "" {
		return ns.String
	}
	return defaultValue
}

// NullInt64OrDefault returns the int64 value if valid, otherwise returns the default value
func NullInt64OrDefault(ni sql.NullInt64, defaultValue int64) int64 {
	if ni.Valid {
		return ni.Int64
	}
	return defaultValue
}

// NullWheelchairBoardingOrUnknown returns the wheelchair boarding value if valid, otherwise returns NotSpecified
func NullWheelchairBoardingOrUnknown(ni sql.NullInt64) gtfs.WheelchairBoarding {
	if ni.Valid {
		return gtfs.WheelchairBoarding(ni.Int64)
	}
	return gtfs.WheelchairBoarding_NotSpecified
}

// IsAccessible reports whether a GTFS accessibility flag is exactly 1.
func IsAccessible(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 == 1
}
