package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Pins the max-based daily rule: MaxDaily acts as a floor on earned
// units, not a ceiling. If product decides the cap should clamp
// instead, this table is the contract to change.
func TestDailyEarnedUnits(t *testing.T) {
	tests := []struct {
		name     string
		count    int64
		quantity int
		maxDaily *int
		want     int64
	}{
		{"exact quantity, no cap", 2, 2, nil, 1},
		{"below quantity, no cap", 1, 2, nil, 1},
		{"triple quantity, no cap", 6, 2, nil, 3},
		{"floor wins over small cap", 10, 2, ptr(3), 5},
		{"cap wins over small floor", 1, 2, ptr(4), 4},
		{"zero quantity treated as one", 3, 0, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dailyEarnedUnits(tt.count, tt.quantity, tt.maxDaily))
		})
	}
}
