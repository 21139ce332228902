package dynamics

import (
	"math"

	"github.com/auricle-audio/mastergo/pkg/dsp/envelope"
	"github.com/auricle-audio/mastergo/pkg/dsp/gain"
)

// Leveler slowly rides the program gain toward a target loudness. It is
// the automatic makeup stage of the chain: an RMS follower measures the
// stereo level over a long window and the gain moves a bounded amount
// toward whatever correction closes the gap.
type Leveler struct {
	sampleRate float64

	target   float64 // desired program level in dB
	maxBoost float64 // most the leveler may amplify, dB
	maxCut   float64 // most the leveler may attenuate, dB (positive number)

	follower  *envelope.Follower
	speedCoef float64

	gainDB float64 // current correction, dB

	// Below this level the program is treated as a pause and the
	// correction freezes instead of ramping to full boost.
	freezeBelow float64
}

// NewLeveler creates a leveler aimed at a typical streaming loudness.
func NewLeveler(sampleRate float64) *Leveler {
	l := &Leveler{
		sampleRate:  sampleRate,
		target:      -16.0,
		maxBoost:    10.0,
		maxCut:      10.0,
		follower:    envelope.NewRMS(sampleRate, 0.400),
		freezeBelow: -50.0,
	}
	l.SetSpeed(2.0)
	return l
}

// SetTarget sets the desired program level in dB.
func (l *Leveler) SetTarget(dB float64) {
	l.target = dB
}

// SetMaxBoost caps amplification at the given dB.
func (l *Leveler) SetMaxBoost(dB float64) {
	l.maxBoost = math.Max(0, dB)
}

// SetMaxCut caps attenuation at the given dB.
func (l *Leveler) SetMaxCut(dB float64) {
	l.maxCut = math.Max(0, dB)
}

// SetSpeed sets the correction time constant in seconds. Larger values
// make the leveler glide more slowly.
func (l *Leveler) SetSpeed(seconds float64) {
	l.speedCoef = 1.0 - math.Exp(-1.0/(math.Max(0.010, seconds)*l.sampleRate))
}

// GainDB returns the current correction in dB, for metering.
func (l *Leveler) GainDB() float64 {
	return l.gainDB
}

// ProcessStereo levels both channels with a shared measurement.
func (l *Leveler) ProcessStereo(left, right []float32) {
	for i := range left {
		linked := math.Max(math.Abs(float64(left[i])), math.Abs(float64(right[i])))
		level := float64(l.follower.Track(float32(linked)))

		levelDB := gain.MinDB
		if level > 0 {
			levelDB = 20.0 * math.Log10(level)
		}

		// During pauses hold the last correction; chasing silence
		// would slam the gain to max boost and pump on re-entry.
		if levelDB > l.freezeBelow {
			want := l.target - levelDB
			if want > l.maxBoost {
				want = l.maxBoost
			}
			if want < -l.maxCut {
				want = -l.maxCut
			}
			l.gainDB += (want - l.gainDB) * l.speedCoef
		}

		g := float32(gain.DbToLinear(l.gainDB))
		left[i] *= g
		right[i] *= g
	}
}

// Reset clears the measurement and returns the gain to unity.
func (l *Leveler) Reset() {
	l.follower.Reset()
	l.gainDB = 0
}
