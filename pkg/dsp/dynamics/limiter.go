package dynamics

import (
	"math"

	"github.com/auricle-audio/mastergo/pkg/dsp/envelope"
	"github.com/auricle-audio/mastergo/pkg/dsp/gain"
)

// Limiter keeps the output under a ceiling with an infinite ratio. A
// short lookahead delays the program so gain reduction is already in
// place when a peak arrives instead of clipping its front edge.
type Limiter struct {
	sampleRate float64

	ceiling float64 // output ceiling in dB, never positive
	release float64 // seconds

	follower *envelope.Follower

	delayL, delayR []float32
	delayIdx       int

	gainReduction float64 // current reduction in dB, for metering
}

// NewLimiter creates a limiter with a 5ms lookahead.
func NewLimiter(sampleRate float64) *Limiter {
	l := &Limiter{
		sampleRate: sampleRate,
		ceiling:    -0.3,
		release:    0.050,
		follower:   envelope.NewPeak(sampleRate, 0.0001, 0.050),
	}
	n := int(0.005 * sampleRate)
	if n < 1 {
		n = 1
	}
	l.delayL = make([]float32, n)
	l.delayR = make([]float32, n)
	return l
}

// SetCeiling sets the output ceiling in dB.
func (l *Limiter) SetCeiling(dB float64) {
	l.ceiling = math.Min(0, dB)
}

// SetRelease sets the recovery time in seconds.
func (l *Limiter) SetRelease(seconds float64) {
	l.release = math.Max(0.001, seconds)
	l.follower.SetTimes(0.0001, l.release)
}

// GainReduction returns the current reduction in dB, for metering.
func (l *Limiter) GainReduction() float64 {
	return l.gainReduction
}

// ProcessStereo limits both channels against a shared detector. The
// output is the delayed program scaled by the reduction the undelayed
// detector saw, so peaks are caught before they pass.
func (l *Limiter) ProcessStereo(left, right []float32) {
	for i := range left {
		inL, inR := left[i], right[i]

		linked := math.Max(math.Abs(float64(inL)), math.Abs(float64(inR)))
		level := float64(l.follower.Track(float32(linked)))

		levelDB := gain.MinDB
		if level > 0 {
			levelDB = 20.0 * math.Log10(level)
		}

		reduction := 0.0
		if levelDB > l.ceiling {
			reduction = levelDB - l.ceiling
		}
		l.gainReduction = reduction
		g := float32(gain.DbToLinear(-reduction))

		outL := l.delayL[l.delayIdx] * g
		outR := l.delayR[l.delayIdx] * g
		l.delayL[l.delayIdx] = inL
		l.delayR[l.delayIdx] = inR
		l.delayIdx++
		if l.delayIdx == len(l.delayL) {
			l.delayIdx = 0
		}

		left[i] = outL
		right[i] = outR
	}
}

// Reset clears the detector, the lookahead delay, and the reduction.
func (l *Limiter) Reset() {
	l.follower.Reset()
	l.gainReduction = 0
	l.delayIdx = 0
	for i := range l.delayL {
		l.delayL[i] = 0
		l.delayR[i] = 0
	}
}
