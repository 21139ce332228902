// Package gain provides amplitude scaling and decibel conversion helpers.
package gain

import "math"

// MinDB is the floor for decibel conversions; amplitudes at or below it
// convert to zero.
const MinDB = -200.0

// LinearToDb converts a linear amplitude to decibels.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts decibels to a linear amplitude.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// LinearToDb32 is the float32 form of LinearToDb.
func LinearToDb32(linear float32) float32 {
	return float32(LinearToDb(float64(linear)))
}

// DbToLinear32 is the float32 form of DbToLinear.
func DbToLinear32(db float32) float32 {
	return float32(DbToLinear(float64(db)))
}

// ApplyBuffer scales a buffer in place by a linear gain.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// ApplyDbBuffer scales a buffer in place by a gain given in decibels.
func ApplyDbBuffer(buffer []float32, db float32) {
	ApplyBuffer(buffer, DbToLinear32(db))
}

// Copy copies src into dst applying a linear gain. Slices must be the
// same length.
func Copy(dst, src []float32, gain float32) {
	for i := range src {
		dst[i] = src[i] * gain
	}
}
