package optimizer

import (
	"fmt"
	"math"
)

// DefaultScale quantizes sizes to tenths of a unit.
const DefaultScale = 10

// quantizeTolerance absorbs binary representation error such as 4.35*100 = 434.99999999999994.
const quantizeTolerance = 1e-9

// Quantize converts a raw size into integer units: floor(value * scale).
func Quantize(value float64, scale int) (int, error) {
	if scale <= 0 {
		return 0, fmt.Errorf("%w: scale must be positive, got %d", ErrInvalidInput, scale)
	}
	if err := checkSize(value); err != nil {
		return 0, err
	}

	scaled := math.Floor(value*float64(scale) + quantizeTolerance)
	if scaled > float64(math.MaxInt32) {
		return 0, fmt.Errorf("%w: %v at scale %d does not fit the table index", ErrResourceLimitExceeded, value, scale)
	}
	return int(scaled), nil
}

func checkSize(value float64) error {
	switch {
	case math.IsNaN(value):
		return fmt.Errorf("%w: size is NaN", ErrInvalidInput)
	case math.IsInf(value, 0):
		return fmt.Errorf("%w: size is infinite", ErrInvalidInput)
	case value < 0:
		return fmt.Errorf("%w: size %v is negative", ErrInvalidInput, value)
	}
	return nil
}
