package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NotAvailable is shown in place of a time that is missing or unreadable.
const NotAvailable = "N/A"

// FormatTime12h turns a 24-hour "HH:MM" string into "H:MM AM|PM".
// Hours 0 and 12 both render as 12. Input without a ':' separator, or with a
// non-numeric hour, yields NotAvailable instead of an error.
func FormatTime12h(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, ":") {
		return NotAvailable
	}

	parts := strings.SplitN(raw, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return NotAvailable
	}
	minute := parts[1]
	// "18:00:00" from a time input with seconds keeps only the minutes
	if idx := strings.Index(minute, ":"); idx != -1 {
		minute = minute[:idx]
	}

	suffix := "AM"
	if hour%24 >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s", hour12, minute, suffix)
}

func Ptr[T any](v T) *T {
	return &v
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringOrNil returns nil for an empty or all-whitespace string.
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
