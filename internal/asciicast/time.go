package asciicast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTimeValue decodes a JSON-lines event's time field. The source
// format historically required a JSON number with a fractional part
// (serializing via a raw to_string() that breaks on bare integers); this
// accepts integral JSON numbers too, treating a missing fractional part
// as zero microseconds.
func parseTimeValue(raw json.RawMessage) (time.Duration, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("invalid time value %s: %w", raw, err)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	left, right, hasFrac := strings.Cut(s, ".")

	secs, err := strconv.ParseUint(left, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value %s: %w", raw, err)
	}

	if !hasFrac {
		right = ""
	}
	if len(right) > 6 {
		right = right[:6]
	}
	for len(right) < 6 {
		right += "0"
	}

	micros, err := strconv.ParseUint(right, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value %s: %w", raw, err)
	}

	return time.Duration(secs*1_000_000+micros) * time.Microsecond, nil
}

// FormatTimeV3 renders a duration as "S.ffffff", stripping trailing
// zeros but always keeping at least one fractional digit.
func FormatTimeV3(d time.Duration) string {
	micros := uint64(d / time.Microsecond)
	s := fmt.Sprintf("%d.%06d", micros/1_000_000, micros%1_000_000)

	dot := strings.IndexByte(s, '.')
	for idx := len(s) - 1; idx >= dot+2; idx-- {
		if s[idx] != '0' {
			break
		}
		s = s[:idx]
	}
	return s
}

// FormatTimeV2 renders a duration as "S.ffffff" with no minimum-digit
// guard; callers trim trailing zeros themselves (the v2 encoder trims
// them but keeps at least one fractional digit, e.g. "0.0").
func FormatTimeV2(d time.Duration) string {
	micros := uint64(d / time.Microsecond)
	return fmt.Sprintf("%d.%06d", micros/1_000_000, micros%1_000_000)
}
