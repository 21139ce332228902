// Package dynamics provides the stereo-linked dynamics stages of the
// mastering chain: noise gate, loudness leveler, and brickwall limiter.
package dynamics

import (
	"math"

	"github.com/auricle-audio/mastergo/pkg/dsp/envelope"
	"github.com/auricle-audio/mastergo/pkg/dsp/gain"
)

// Gate mutes program material below a threshold. Hysteresis keeps the
// gate from chattering around the threshold: it opens at threshold and
// closes only once the level falls below threshold minus hysteresis.
type Gate struct {
	sampleRate float64

	threshold  float64 // open level in dB
	hysteresis float64 // dB below threshold where the gate closes
	floor      float64 // attenuation when closed, dB

	follower *envelope.Follower

	open         bool
	holdSamples  int
	holdCounter  int
	currentGain  float64
	attackCoef   float64
	releaseCoef  float64
	closedLinear float64
}

// NewGate creates a gate with mastering-appropriate defaults: it reacts
// quickly to program onsets and closes gently.
func NewGate(sampleRate float64) *Gate {
	g := &Gate{
		sampleRate: sampleRate,
		threshold:  -60.0,
		hysteresis: 6.0,
		floor:      -90.0,
		follower:   envelope.NewPeak(sampleRate, 0.0001, 0.010),
	}
	g.closedLinear = gain.DbToLinear(g.floor)
	g.currentGain = g.closedLinear
	g.setTimes(0.001, 0.250)
	g.SetHold(0.050)
	return g
}

// SetThreshold sets the opening threshold in dB.
func (g *Gate) SetThreshold(dB float64) {
	g.threshold = dB
}

// SetHysteresis sets how far below the threshold the level must fall
// before the gate closes, in dB.
func (g *Gate) SetHysteresis(dB float64) {
	g.hysteresis = math.Max(0, dB)
}

// SetFloor sets the closed attenuation in dB.
func (g *Gate) SetFloor(dB float64) {
	g.floor = math.Min(0, dB)
	g.closedLinear = gain.DbToLinear(g.floor)
}

// SetHold sets how long the gate stays open after the level drops, in
// seconds.
func (g *Gate) SetHold(seconds float64) {
	g.holdSamples = int(math.Max(0, seconds) * g.sampleRate)
}

// SetRelease sets the closing time in seconds.
func (g *Gate) SetRelease(seconds float64) {
	g.setTimes(0.001, seconds)
}

func (g *Gate) setTimes(attack, release float64) {
	g.attackCoef = 1.0 - math.Exp(-1.0/(math.Max(0.0001, attack)*g.sampleRate))
	g.releaseCoef = 1.0 - math.Exp(-1.0/(math.Max(0.001, release)*g.sampleRate))
}

// IsOpen reports whether the gate is currently passing signal.
func (g *Gate) IsOpen() bool {
	return g.open
}

// ProcessStereo gates both channels with a shared detector so the
// stereo image is preserved.
func (g *Gate) ProcessStereo(left, right []float32) {
	for i := range left {
		linked := math.Max(math.Abs(float64(left[i])), math.Abs(float64(right[i])))
		level := float64(g.follower.Track(float32(linked)))

		levelDB := gain.MinDB
		if level > 0 {
			levelDB = 20.0 * math.Log10(level)
		}

		if g.open {
			if levelDB < g.threshold-g.hysteresis {
				if g.holdCounter > 0 {
					g.holdCounter--
				} else {
					g.open = false
				}
			} else {
				g.holdCounter = g.holdSamples
			}
		} else if levelDB >= g.threshold {
			g.open = true
			g.holdCounter = g.holdSamples
		}

		target := g.closedLinear
		coef := g.releaseCoef
		if g.open {
			target = 1.0
			coef = g.attackCoef
		}
		g.currentGain += (target - g.currentGain) * coef

		left[i] *= float32(g.currentGain)
		right[i] *= float32(g.currentGain)
	}
}

// Reset clears the detector and closes the gate.
func (g *Gate) Reset() {
	g.follower.Reset()
	g.open = false
	g.holdCounter = 0
	g.currentGain = g.closedLinear
}
