package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when decoding timestamps from the wire.
// Layouts without a zone are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats that publishers put on the bus.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// wireTime decodes a JSON string timestamp in any of timeLayouts.
// null and "" decode to an unset value.
type wireTime struct {
	t   time.Time
	set bool
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	w.t, w.set = t, true
	return nil
}

func (w wireTime) ptr() *time.Time {
	if !w.set {
		return nil
	}
	t := w.t
	return &t
}

// wireID decodes a task ID sent either as a JSON number or a numeric string.
type wireID struct {
	v   int64
	set bool
}

func (w *wireID) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	b = bytes.Trim(b, `"`)
	if len(b) == 0 {
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %s", b)
	}
	w.v, w.set = v, true
	return nil
}

func isNull(b []byte) bool {
	return len(b) == 0 || string(bytes.TrimSpace(b)) == "null"
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// first returns the first set value among candidates.
func firstTime(candidates ...wireTime) *time.Time {
	for _, c := range candidates {
		if c.set {
			return c.ptr()
		}
	}
	return nil
}
