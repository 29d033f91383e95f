package utils

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/OneBusAway/go-gtfs"
)

// MapWheelchairBoarding converts GTFS wheelchair boarding values to our API format
func MapWheelchairBoarding(wheelchairBoarding gtfs.WheelchairBoarding) string {
	switch wheelchairBoarding {
	case gtfs.WheelchairBoarding_Possible:
		return "ACCESSIBLE"
	case gtfs.WheelchairBoarding_NotPossible:
		return "NOT_ACCESSIBLE"
	default:
		return "UNKNOWN"
	}
}

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// A missing key yields 0 and no error; an unparsable value is recorded in fieldErrors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return f, fieldErrors
}

// ParseOptionalFloatParam is ParseFloatParam that also reports whether the key was present.
func ParseOptionalFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, bool, map[string][]string) {
	if params.Get(key) == "" {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		return 0, false, fieldErrors
	}
	f, fieldErrors := ParseFloatParam(params, key, fieldErrors)
	return f, len(fieldErrors[key]) == 0, fieldErrors
}

// ParseIntParam parses a non-negative integer parameter, falling back to defaultValue when absent.
func ParseIntParam(params url.Values, key string, defaultValue int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return defaultValue, fieldErrors
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return defaultValue, fieldErrors
	}
	return i, fieldErrors
}

// ParseBoolParam accepts the strconv.ParseBool spellings; absent means false.
func ParseBoolParam(params url.Values, key string, fieldErrors map[string][]string) (bool, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return false, fieldErrors
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return b, fieldErrors
}
