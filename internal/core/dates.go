package core

import (
	"errors"
	"strings"
	"time"
)

var ErrUnparsableDate = errors.New("unparsable date expression")

// ResolveDate converts a date expression into an absolute UTC instant.
//
// An absent or empty expression defaults to now truncated to the day
// boundary. Present expressions must already be absolute (RFC 3339 or plain
// YYYY-MM-DD); relative phrases are resolved upstream by the classifier,
// which is prompted with the current UTC instant. Resolving an instant that
// is already absolute returns it unchanged.
func ResolveDate(expr string, nowUTC time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Midnight(nowUTC), nil
	}
	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", expr); err == nil {
		return t, nil
	}
	return time.Time{}, ErrUnparsableDate
}

// Midnight truncates an instant to 00:00:00 UTC of the same day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
