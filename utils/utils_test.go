package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullToZero(t *testing.T) {
	assert.Equal(t, 0.0, NullToZero(math.NaN()))
	assert.Equal(t, 42.5, NullToZero(42.5))
	assert.Equal(t, 0.0, NullToZero(0))
	assert.Equal(t, -1.5, NullToZero(-1.5))
}

func TestIsMarketHours(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday midday", time.Date(2025, 6, 2, 12, 0, 0, 0, eastern), true},
		{"weekday at open", time.Date(2025, 6, 2, 9, 30, 0, 0, eastern), true},
		{"weekday before open", time.Date(2025, 6, 2, 9, 29, 0, 0, eastern), false},
		{"weekday at close", time.Date(2025, 6, 2, 16, 0, 0, 0, eastern), true},
		{"weekday after close", time.Date(2025, 6, 2, 16, 1, 0, 0, eastern), false},
		{"saturday", time.Date(2025, 6, 7, 12, 0, 0, 0, eastern), false},
		{"sunday", time.Date(2025, 6, 8, 12, 0, 0, 0, eastern), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMarketHours(tt.at))
		})
	}
}
