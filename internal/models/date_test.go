package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-09-01")
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-01"`, string(raw))

	var parsed Date
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, d, parsed)

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestDateArithmeticAndComparison(t *testing.T) {
	d := NewDate(2026, time.February, 27)

	// Crosses the month boundary.
	assert.Equal(t, NewDate(2026, time.March, 2), d.AddDays(3))

	assert.True(t, d.Before(NewDate(2026, time.February, 28)))
	assert.False(t, d.Before(d))
	assert.True(t, NewDate(2026, time.March, 1).After(d))
}

func TestDateOfUsesLocation(t *testing.T) {
	// 23:30 UTC on Aug 31 is already Sep 1 in UTC+7; the civil date must
	// follow the instant's location.
	jakarta := time.FixedZone("WIB", 7*3600)
	instant := time.Date(2026, time.August, 31, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, NewDate(2026, time.August, 31), DateOf(instant))
	assert.Equal(t, NewDate(2026, time.September, 1), DateOf(instant.In(jakarta)))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2026, time.September, 1), d)

	require.NoError(t, d.Scan([]byte("2026-12-31")))
	assert.Equal(t, NewDate(2026, time.December, 31), d)

	assert.Error(t, d.Scan(42))
}
