// Package envelope provides level followers for dynamics processing.
package envelope

import "math"

// Mode selects how the follower derives the level from the input.
type Mode int

const (
	// ModePeak tracks the rectified peak level.
	ModePeak Mode = iota
	// ModeRMS tracks the root-mean-square level over a sliding window.
	ModeRMS
)

// Follower smooths the level of a signal with separate attack and release
// time constants. One instance tracks one detection signal; stereo-linked
// stages feed it the per-sample channel maximum.
type Follower struct {
	sampleRate float64
	mode       Mode

	attackCoef  float64
	releaseCoef float64

	level float64

	// RMS sliding window state, unused in peak mode.
	window []float64
	widx   int
	sum    float64
}

// NewPeak creates a peak follower with the given time constants in seconds.
func NewPeak(sampleRate, attack, release float64) *Follower {
	f := &Follower{sampleRate: sampleRate, mode: ModePeak}
	f.SetTimes(attack, release)
	return f
}

// NewRMS creates an RMS follower with the given window length in seconds.
// Attack and release both default to a quarter of the window so the reported
// level moves at the pace of the window itself.
func NewRMS(sampleRate, window float64) *Follower {
	n := int(sampleRate * window)
	if n < 1 {
		n = 1
	}
	f := &Follower{
		sampleRate: sampleRate,
		mode:       ModeRMS,
		window:     make([]float64, n),
	}
	f.SetTimes(window/4, window/4)
	return f
}

// SetTimes sets the attack and release time constants in seconds.
func (f *Follower) SetTimes(attack, release float64) {
	f.attackCoef = onePoleCoef(attack, f.sampleRate)
	f.releaseCoef = onePoleCoef(release, f.sampleRate)
}

func onePoleCoef(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 1.0
	}
	return 1.0 - math.Exp(-1.0/(seconds*sampleRate))
}

// Track feeds one sample and returns the smoothed level.
func (f *Follower) Track(input float32) float32 {
	var in float64
	switch f.mode {
	case ModePeak:
		in = math.Abs(float64(input))
	case ModeRMS:
		sq := float64(input) * float64(input)
		f.sum += sq - f.window[f.widx]
		f.window[f.widx] = sq
		f.widx++
		if f.widx == len(f.window) {
			f.widx = 0
		}
		mean := f.sum / float64(len(f.window))
		if mean < 0 {
			mean = 0 // rounding drift in the running sum
		}
		in = math.Sqrt(mean)
	}

	if in > f.level {
		f.level += (in - f.level) * f.attackCoef
	} else {
		f.level += (in - f.level) * f.releaseCoef
	}
	return float32(f.level)
}

// Level returns the current smoothed level without advancing the follower.
func (f *Follower) Level() float32 {
	return float32(f.level)
}

// LevelDB returns the current level in decibels, floored at -96 dB.
func (f *Follower) LevelDB() float32 {
	if f.level <= 0 {
		return -96.0
	}
	db := 20.0 * math.Log10(f.level)
	if db < -96.0 {
		return -96.0
	}
	return float32(db)
}

// Reset clears all follower state.
func (f *Follower) Reset() {
	f.level = 0
	f.sum = 0
	f.widx = 0
	for i := range f.window {
		f.window[i] = 0
	}
}
