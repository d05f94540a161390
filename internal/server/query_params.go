package server

import (
	"strconv"
	"strings"
	"time"
)

// dateRange parses an inclusive from/to filter pair. Each bound accepts
// RFC 3339 or a bare date; a bare "to" date extends to the end of that day.
func dateRange(fromField, from, toField, to string) (*time.Time, *time.Time, error) {
	start, ok := parseBound(from, false)
	if !ok {
		return nil, nil, invalidParam(fromField)
	}
	end, ok := parseBound(to, true)
	if !ok {
		return nil, nil, invalidParam(toField)
	}
	return start, end, nil
}

func parseBound(value string, endOfDay bool) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	day, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, true
}

// queryFlag parses an optional boolean query parameter; absent is false.
func queryFlag(field, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidParam(field)
	}
	return on, nil
}

func invalidParam(field string) error {
	return newValidationError(field, "invalid_"+field, "invalid "+field)
}
