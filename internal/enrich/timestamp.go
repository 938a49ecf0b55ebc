package enrich

import (
	"strings"
	"time"

	"marketwatch/internal/domain"
)

// Epoch magnitude boundaries used to guess the precision of an integer
// publication time. Values below 1e11 are read as seconds (valid through
// roughly year 5138), below 1e14 as milliseconds, anything larger as
// microseconds. This is a heuristic over the upstream API's observed date
// ranges: a genuinely ambiguous value near a boundary is misread silently
// rather than rejected.
const (
	maxEpochSeconds = int64(1e11)
	maxEpochMillis  = int64(1e14)
)

// NormalizeTimestamp converts an upstream publication time into a
// canonical RFC3339 UTC string with a literal Z suffix. Strings that
// already contain a date/time separator pass through unchanged. The
// second return is false when there is no usable input.
func NormalizeTimestamp(raw *domain.RawTime) (string, bool) {
	if raw == nil {
		return "", false
	}

	if !raw.IsEpoch {
		if strings.Contains(raw.Text, "T") {
			return raw.Text, true
		}
		return "", false
	}

	var t time.Time
	switch {
	case raw.Epoch < maxEpochSeconds:
		t = time.Unix(raw.Epoch, 0)
	case raw.Epoch < maxEpochMillis:
		t = time.UnixMilli(raw.Epoch)
	default:
		t = time.UnixMicro(raw.Epoch)
	}

	return t.UTC().Format(time.RFC3339Nano), true
}
