// Package mastering ties the DSP engine, the parameter surface and the
// loudness histogram channel together into the plugin's processor.
package mastering

import (
	fwdsp "github.com/auricle-audio/mastergo/pkg/framework/dsp"

	"github.com/auricle-audio/mastergo/pkg/dsp"
	"github.com/auricle-audio/mastergo/pkg/dsp/dynamics"
)

// Engine is the DSP collaborator the processing loop drives. Compute runs
// exactly once per audio callback on the real-time thread; the loudness
// readings are valid immediately after it returns.
type Engine interface {
	// Compute processes frames samples from in into out. Both hold two
	// channels.
	Compute(frames int, in, out [][]float32)

	// LoudnessIn returns the momentary input loudness in LUFS.
	LoudnessIn() float32

	// LoudnessOut returns the momentary output loudness in LUFS.
	LoudnessOut() float32

	// Reset clears all engine state.
	Reset()
}

// ReferenceEngine is the built-in mastering chain: gate, loudness
// leveler, brickwall limiter, with K-weighted meters on both sides.
type ReferenceEngine struct {
	gate    *dynamics.Gate
	leveler *dynamics.Leveler
	limiter *dynamics.Limiter
	chain   *fwdsp.StereoChain

	meterIn  *dsp.LoudnessMeter
	meterOut *dsp.LoudnessMeter
}

// NewReferenceEngine creates the chain for the given sample rate.
func NewReferenceEngine(sampleRate float64) *ReferenceEngine {
	e := &ReferenceEngine{
		gate:     dynamics.NewGate(sampleRate),
		leveler:  dynamics.NewLeveler(sampleRate),
		limiter:  dynamics.NewLimiter(sampleRate),
		meterIn:  dsp.NewLoudnessMeter(sampleRate),
		meterOut: dsp.NewLoudnessMeter(sampleRate),
	}
	e.chain = fwdsp.NewStereoChain("master").
		Add(e.gate).
		Add(e.leveler).
		Add(e.limiter)
	return e
}

// SetTarget sets the leveler's target loudness in dB.
func (e *ReferenceEngine) SetTarget(dB float64) {
	e.leveler.SetTarget(dB)
}

// SetGateThreshold sets the gate's opening threshold in dB.
func (e *ReferenceEngine) SetGateThreshold(dB float64) {
	e.gate.SetThreshold(dB)
}

// SetCeiling sets the limiter's output ceiling in dB.
func (e *ReferenceEngine) SetCeiling(dB float64) {
	e.limiter.SetCeiling(dB)
}

// SetLevelerSpeed sets the leveler time constant in seconds.
func (e *ReferenceEngine) SetLevelerSpeed(seconds float64) {
	e.leveler.SetSpeed(seconds)
}

// Compute implements Engine.
func (e *ReferenceEngine) Compute(frames int, in, out [][]float32) {
	inL, inR := in[0][:frames], in[1][:frames]
	outL, outR := out[0][:frames], out[1][:frames]

	e.meterIn.Process(inL, inR)

	copy(outL, inL)
	copy(outR, inR)
	e.chain.ProcessStereo(outL, outR)

	e.meterOut.Process(outL, outR)
}

// LoudnessIn implements Engine.
func (e *ReferenceEngine) LoudnessIn() float32 {
	return e.meterIn.Momentary()
}

// LoudnessOut implements Engine.
func (e *ReferenceEngine) LoudnessOut() float32 {
	return e.meterOut.Momentary()
}

// Reset implements Engine.
func (e *ReferenceEngine) Reset() {
	e.chain.Reset()
	e.meterIn.Reset()
	e.meterOut.Reset()
}
