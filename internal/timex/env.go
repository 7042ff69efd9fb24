package timex

import (
	"strconv"
	"strings"
	"time"
)

// Minutes reads an environment value as a Go duration string, or as a bare
// integer counted in minutes ("30" is half an hour).
type Minutes struct {
	time.Duration
}

// Decode implements envconfig.Decoder.
func (m *Minutes) Decode(value string) error {
	d, err := ParseIn(value, time.Minute)
	if err != nil {
		return err
	}
	m.Duration = d
	return nil
}

// Days reads an environment value as a Go duration string, or as a bare
// integer counted in days ("3" is 72h).
type Days struct {
	time.Duration
}

// Decode implements envconfig.Decoder.
func (d *Days) Decode(value string) error {
	v, err := ParseIn(value, 24*time.Hour)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// ParseIn parses s with time.ParseDuration unless it is a plain integer, in
// which case it is a count of unit.
func ParseIn(s string, unit time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(s)
}
