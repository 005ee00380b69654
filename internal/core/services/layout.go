package services

import (
	"math"

	"mosaic/internal/core/domain"
)

// Columns returns the near-square column count for n tiles, capped at
// domain.MaxGridColumns. Tiles flow left-to-right, top-to-bottom; the final
// row may be partially filled.
func Columns(n int) int {
	if n < 1 {
		return 1
	}
	c := int(math.Ceil(math.Sqrt(float64(n))))
	if c > domain.MaxGridColumns {
		c = domain.MaxGridColumns
	}
	return c
}

// Rows returns the row count for n tiles at Columns(n) columns.
func Rows(n int) int {
	if n < 1 {
		return 1
	}
	c := Columns(n)
	return (n + c - 1) / c
}
