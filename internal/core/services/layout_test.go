package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumns(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"single tile", 1, 1},
		{"two tiles", 2, 2},
		{"four tiles", 4, 2},
		{"five tiles", 5, 3},
		{"nine tiles", 9, 3},
		{"ten tiles", 10, 4},
		{"sixteen tiles", 16, 4},
		{"twenty five tiles", 25, 5},
		{"forty nine tiles", 49, 7},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Columns(tt.n))
		})
	}
}

func TestRows(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"single tile", 1, 1},
		{"two tiles", 2, 1},
		{"three tiles", 3, 2},
		{"four tiles", 4, 2},
		{"five tiles", 5, 2},
		{"seven tiles", 7, 3},
		{"twelve tiles", 12, 3},
		{"forty nine tiles", 49, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rows(tt.n))
		})
	}
}

// Every valid grid size fits inside the computed geometry without wasting a
// full row, and never exceeds the column cap.
func TestLayoutCoversEveryGridSize(t *testing.T) {
	for n := 1; n <= 49; n++ {
		c := Columns(n)
		r := Rows(n)

		assert.LessOrEqual(t, c, 8, "n=%d", n)
		assert.GreaterOrEqual(t, c*r, n, "n=%d: grid too small", n)
		assert.Less(t, c*(r-1), n, "n=%d: wasted row", n)

		if c < 8 {
			expected := int(math.Ceil(math.Sqrt(float64(n))))
			assert.Equal(t, expected, c, "n=%d", n)
		}
	}
}
