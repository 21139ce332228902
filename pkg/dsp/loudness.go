// Package dsp provides audio measurement primitives used by the
// mastering engine, most notably the K-weighted loudness meter.
package dsp

import "math"

// biquad is a direct form II transposed second order section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (f *biquad) process(in float64) float64 {
	out := f.b0*in + f.z1
	f.z1 = f.b1*in - f.a1*out + f.z2
	f.z2 = f.b2*in - f.a2*out
	return out
}

func (f *biquad) reset() {
	f.z1 = 0
	f.z2 = 0
}

// newShelf builds the K-weighting head stage, a +4 dB high shelf that
// models the acoustic effect of the head.
func newShelf(sampleRate float64) biquad {
	const (
		f0 = 1681.9744509555319
		g  = 3.99984385397
		q  = 0.7071752369554193
	)
	k := math.Tan(math.Pi * f0 / sampleRate)
	vh := math.Pow(10.0, g/20.0)
	vb := math.Pow(vh, 0.499666774155)
	a0 := 1.0 + k/q + k*k
	return biquad{
		b0: (vh + vb*k/q + k*k) / a0,
		b1: 2.0 * (k*k - vh) / a0,
		b2: (vh - vb*k/q + k*k) / a0,
		a1: 2.0 * (k*k - 1.0) / a0,
		a2: (1.0 - k/q + k*k) / a0,
	}
}

// newHighpass builds the RLB weighting stage, a second order highpass
// that discounts inaudible rumble.
func newHighpass(sampleRate float64) biquad {
	const (
		f0 = 38.13547087602444
		q  = 0.5003270373238773
	)
	k := math.Tan(math.Pi * f0 / sampleRate)
	a0 := 1.0 + k/q + k*k
	return biquad{
		b0: 1.0,
		b1: -2.0,
		b2: 1.0,
		a1: 2.0 * (k*k - 1.0) / a0,
		a2: (1.0 - k/q + k*k) / a0,
	}
}

// LoudnessMeter measures the momentary loudness of a stereo program in
// LUFS. Both channels pass through the K-weighting filter pair and
// their mean square is taken over a 400ms sliding window.
//
// All buffers are allocated up front; Process is safe to call from the
// audio thread.
type LoudnessMeter struct {
	shelfL, shelfR biquad
	hpL, hpR       biquad

	window []float64 // combined channel energy per sample
	widx   int
	sum    float64
	primed int // samples observed, capped at len(window)
}

// SilentLUFS is reported while the window holds no energy.
const SilentLUFS float32 = -70.0

// NewLoudnessMeter creates a meter for the given sample rate.
func NewLoudnessMeter(sampleRate float64) *LoudnessMeter {
	n := int(sampleRate * 0.400)
	if n < 1 {
		n = 1
	}
	return &LoudnessMeter{
		shelfL: newShelf(sampleRate),
		shelfR: newShelf(sampleRate),
		hpL:    newHighpass(sampleRate),
		hpR:    newHighpass(sampleRate),
		window: make([]float64, n),
	}
}

// Process feeds one block of stereo audio into the meter.
func (m *LoudnessMeter) Process(left, right []float32) {
	for i := range left {
		l := m.hpL.process(m.shelfL.process(float64(left[i])))
		r := m.hpR.process(m.shelfR.process(float64(right[i])))
		energy := l*l + r*r

		m.sum += energy - m.window[m.widx]
		m.window[m.widx] = energy
		m.widx++
		if m.widx == len(m.window) {
			m.widx = 0
		}
		if m.primed < len(m.window) {
			m.primed++
		}
	}
}

// Momentary returns the loudness of the last 400ms in LUFS, floored at
// SilentLUFS.
func (m *LoudnessMeter) Momentary() float32 {
	if m.primed == 0 {
		return SilentLUFS
	}
	mean := m.sum / float64(m.primed)
	if mean <= 0 {
		return SilentLUFS
	}
	lufs := -0.691 + 10.0*math.Log10(mean)
	if lufs < float64(SilentLUFS) {
		return SilentLUFS
	}
	return float32(lufs)
}

// Reset clears the filters and the measurement window.
func (m *LoudnessMeter) Reset() {
	m.shelfL.reset()
	m.shelfR.reset()
	m.hpL.reset()
	m.hpR.reset()
	m.sum = 0
	m.widx = 0
	m.primed = 0
	for i := range m.window {
		m.window[i] = 0
	}
}
