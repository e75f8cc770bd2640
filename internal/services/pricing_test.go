package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfPayment(t *testing.T) {
	tests := []struct {
		band string
		want float64
	}{
		{"$100-$500", 150},
		{"$500-$1000", 375},
		{"$1000-$5000", 1500},
		{"$5000+", 3000},
		{"  $100-$500  ", 150},
		{"", 0},
		{"negotiable", 0},
		{"$100", 0},
	}

	for _, tt := range tests {
		t.Run(tt.band, func(t *testing.T) {
			assert.Equal(t, tt.want, HalfPayment(tt.band))
		})
	}
}
