// Package timex holds time-related helpers shared by config parsing and the
// progression logic: a JSON-friendly Duration and calendar-day formatting.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DayFormat is the layout for calendar-day strings ("YYYY-MM-DD") used in
// activity tracking.
const DayFormat = "2006-01-02"

// TimestampFormat is the layout for second-precision UTC timestamps stored
// in history logs.
const TimestampFormat = "2006-01-02T15:04:05"

// Duration wraps time.Duration so it can be unmarshalled from JSON either
// as a string such as "8s" or as an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Day formats t as a calendar-day string in t's location.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a calendar-day string produced by Day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// Timestamp formats t as a second-precision UTC timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
