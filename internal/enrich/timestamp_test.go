package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketwatch/internal/domain"
)

func TestNormalizeTimestamp_Absent(t *testing.T) {
	got, ok := NormalizeTimestamp(nil)

	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestNormalizeTimestamp_ISOStringPassesThrough(t *testing.T) {
	raw := &domain.RawTime{Text: "2023-11-14T22:13:20+00:00"}

	got, ok := NormalizeTimestamp(raw)

	assert.True(t, ok)
	assert.Equal(t, "2023-11-14T22:13:20+00:00", got)
}

func TestNormalizeTimestamp_UnrecognizedStringIsAbsent(t *testing.T) {
	raw := &domain.RawTime{Text: "yesterday"}

	_, ok := NormalizeTimestamp(raw)

	assert.False(t, ok)
}

func TestNormalizeTimestamp_SecondsAndMillisAgree(t *testing.T) {
	seconds := &domain.RawTime{Epoch: 1700000000, IsEpoch: true}
	millis := &domain.RawTime{Epoch: 1700000000000, IsEpoch: true}

	fromSeconds, ok := NormalizeTimestamp(seconds)
	assert.True(t, ok)
	fromMillis, ok := NormalizeTimestamp(millis)
	assert.True(t, ok)

	assert.Equal(t, "2023-11-14T22:13:20Z", fromSeconds)
	assert.Equal(t, fromSeconds, fromMillis)
}

func TestNormalizeTimestamp_Microseconds(t *testing.T) {
	raw := &domain.RawTime{Epoch: 1700000000000000, IsEpoch: true}

	got, ok := NormalizeTimestamp(raw)

	assert.True(t, ok)
	assert.Equal(t, "2023-11-14T22:13:20Z", got)
}

func TestNormalizeTimestamp_MillisKeepSubsecondPrecision(t *testing.T) {
	raw := &domain.RawTime{Epoch: 1700000000500, IsEpoch: true}

	got, ok := NormalizeTimestamp(raw)

	assert.True(t, ok)
	assert.Equal(t, "2023-11-14T22:13:20.5Z", got)
}
