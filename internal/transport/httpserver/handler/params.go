package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// paramError names the query or path parameter that could not be parsed.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return e.name + " " + e.reason
}

func parseDateRequired(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &paramError{name: name, reason: "is required"}
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, &paramError{name: name, reason: "must be a YYYY-MM-DD date"}
	}
	return parsed, nil
}

func parseDateParam(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := parseFlexibleDate(value)
	if err != nil {
		return nil, &paramError{name: name, reason: "must be a YYYY-MM-DD date"}
	}
	return &parsed, nil
}

// parseFlexibleDate accepts a plain date or an RFC 3339 timestamp.
func parseFlexibleDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseIntParam(name, value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, &paramError{name: name, reason: "must be a non-negative integer"}
	}
	return parsed, nil
}

func parseIDParam(name, value string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, &paramError{name: name, reason: "must be an integer"}
	}
	return parsed, nil
}

func parseOptionalID(name, value string) (*int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseIDParam(name, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseFloatParam(name, value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil, &paramError{name: name, reason: "must be a finite number"}
	}
	return &parsed, nil
}

func parseCSVIDs(name, value string) ([]int64, error) {
	parts := strings.Split(value, ",")
	seen := make(map[int64]struct{}, len(parts))
	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, &paramError{name: name, reason: fmt.Sprintf("contains invalid id %q", item)}
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}
