package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	localTimeLayout = "2006-01-02T15:04:05"
)

// Timestamp is a due date as the task API encodes it.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 instants, offset-less local date-times and
// bare dates. An empty string or null yields the zero value.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("failed to decode due date: %w", err)
	}
	if s == nil || *s == "" {
		ts.Time = time.Time{}
		return nil
	}

	t, err := ParseTimestamp(*s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// MarshalJSON writes the instant as RFC 3339 in UTC.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.Time.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// ParseTimestamp parses a due date string. Bare dates are UTC midnight and
// date-times without an offset are local time.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("failed to parse due date '%s'", s)
}
