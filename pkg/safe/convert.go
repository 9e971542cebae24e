// Package safe provides helpers for narrowing numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"
)

// Unsigned is the set of unsigned and non-negative signed sources accepted by the helpers.
type Unsigned interface {
	~int | ~int64 | ~uint | ~uint32 | ~uint64
}

// Uint8 narrows v to uint8, rejecting negatives and values above math.MaxUint8.
func Uint8[T Unsigned](v T) (uint8, error) {
	u, err := widen(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("value %d out of uint8 range", v)
	}
	return uint8(u), nil
}

// Uint32 narrows v to uint32, rejecting negatives and values above math.MaxUint32.
func Uint32[T Unsigned](v T) (uint32, error) {
	u, err := widen(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(u), nil
}

// Int64 converts v to int64, rejecting values above math.MaxInt64.
func Int64[T Unsigned](v T) (int64, error) {
	u, err := widen(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("value %d out of int64 range", v)
	}
	return int64(u), nil
}

// Uint64 converts v to uint64, rejecting negatives.
func Uint64[T Unsigned](v T) (uint64, error) {
	return widen(v)
}

func widen[T Unsigned](v T) (uint64, error) {
	switch value := any(v).(type) {
	case int:
		if value < 0 {
			return 0, fmt.Errorf("negative value %d", value)
		}
		return uint64(value), nil
	case int64:
		if value < 0 {
			return 0, fmt.Errorf("negative value %d", value)
		}
		return uint64(value), nil
	case uint:
		return uint64(value), nil
	case uint32:
		return uint64(value), nil
	case uint64:
		return value, nil
	default:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	}
}
