// Package timex holds time helpers shared by config loaders.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration for JSON: it decodes either a Go duration
// string ("90s", "15m") or an integer number of nanoseconds, and encodes as
// a duration string.
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
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}
