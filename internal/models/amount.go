package models

import (
	"math"
	"strconv"
)

// Amount is a USD value kept at full float64 precision. It marshals to JSON
// as a plain decimal number; NaN and infinities are written as 0.
type Amount float64

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("0"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// Float64 returns a as a float64.
func (a Amount) Float64() float64 { return float64(a) }

// Cents returns a rounded to the nearest cent, as an integer.
func (a Amount) Cents() int64 {
	return int64(math.Round(float64(a) * 100))
}

// Rounded returns a rounded to two decimals.
func (a Amount) Rounded() float64 {
	return float64(a.Cents()) / 100
}

// String formats a as dollars and cents, e.g. "$30.15".
func (a Amount) String() string {
	return "$" + strconv.FormatFloat(a.Rounded(), 'f', 2, 64)
}
