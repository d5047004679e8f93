package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date accepts "2006-01-02" or RFC 3339 in JSON input. Null or "" leave it zero.
type Date struct {
	time.Time
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, time.RFC3339}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// ParseDate parses the accepted layouts. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
}
