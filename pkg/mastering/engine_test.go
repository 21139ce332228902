package mastering

import (
	"math"
	"testing"
)

func runEngine(e *ReferenceEngine, amp float64, seconds float64) ([]float32, []float32) {
	const rate = 48000.0
	const block = 1024
	in := [][]float32{make([]float32, block), make([]float32, block)}
	out := [][]float32{make([]float32, block), make([]float32, block)}

	blocks := int(seconds * rate / block)
	n := 0
	for b := 0; b < blocks; b++ {
		for i := 0; i < block; i++ {
			s := float32(amp * math.Sin(2*math.Pi*997*float64(n)/rate))
			in[0][i] = s
			in[1][i] = s
			n++
		}
		e.Compute(block, in, out)
	}
	return out[0], out[1]
}

func TestReferenceEngineHoldsCeiling(t *testing.T) {
	e := NewReferenceEngine(48000)
	e.SetCeiling(-3.0)
	e.SetTarget(-14.0)

	left, _ := runEngine(e, 1.0, 2.0)

	ceiling := math.Pow(10, -3.0/20.0)
	for i, s := range left {
		if math.Abs(float64(s)) > ceiling*1.15 {
			t.Fatalf("sample %d = %f exceeds the ceiling %f", i, s, ceiling)
		}
	}
}

func TestReferenceEngineMeasuresBothSides(t *testing.T) {
	e := NewReferenceEngine(48000)
	runEngine(e, 0.1, 1.0)

	in := e.LoudnessIn()
	if in < -30 || in > -15 {
		t.Errorf("LoudnessIn() = %f for a -20 dBFS sine, want a value near -20", in)
	}
	if out := e.LoudnessOut(); out == -70.0 {
		t.Error("LoudnessOut() still at the silence floor after a loud program")
	}
}

func TestReferenceEngineGatesSilence(t *testing.T) {
	e := NewReferenceEngine(48000)
	e.SetGateThreshold(-60.0)

	// A -80 dB hiss sits under the gate and must come out attenuated.
	left, _ := runEngine(e, 0.0001, 1.0)

	for i, s := range left {
		if math.Abs(float64(s)) > 0.0001 {
			t.Fatalf("sample %d = %g, gate amplified a sub-threshold signal", i, s)
		}
	}
}

func TestReferenceEngineReset(t *testing.T) {
	e := NewReferenceEngine(48000)
	runEngine(e, 1.0, 0.5)

	e.Reset()

	if e.LoudnessIn() != -70.0 || e.LoudnessOut() != -70.0 {
		t.Errorf("loudness after Reset = %f/%f, want the silence floor",
			e.LoudnessIn(), e.LoudnessOut())
	}
}
