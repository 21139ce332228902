package dsp

import "testing"

// scaleStage halves both channels, for observing stage order and reset.
type scaleStage struct {
	factor float32
	resets int
}

func (s *scaleStage) ProcessStereo(left, right []float32) {
	for i := range left {
		left[i] *= s.factor
		right[i] *= s.factor
	}
}

func (s *scaleStage) Reset() { s.resets++ }

func TestStereoChainRunsStagesInOrder(t *testing.T) {
	chain := NewStereoChain("master")
	chain.Add(&scaleStage{factor: 0.5}).Add(&scaleStage{factor: 0.5})

	left := []float32{1.0, -1.0}
	right := []float32{0.5, -0.5}
	chain.ProcessStereo(left, right)

	if left[0] != 0.25 || right[0] != 0.125 {
		t.Errorf("got left[0]=%f right[0]=%f, want both stages applied", left[0], right[0])
	}
	if chain.Count() != 2 {
		t.Errorf("Count() = %d, want 2", chain.Count())
	}
}

func TestStereoChainBypass(t *testing.T) {
	chain := NewStereoChain("master")
	chain.Add(&scaleStage{factor: 0.5})
	chain.SetBypass(true)

	left := []float32{1.0}
	right := []float32{1.0}
	chain.ProcessStereo(left, right)

	if left[0] != 1.0 {
		t.Errorf("bypassed chain altered the signal: %f", left[0])
	}
}

func TestStereoChainResetReachesEveryStage(t *testing.T) {
	a := &scaleStage{factor: 1}
	b := &scaleStage{factor: 1}
	chain := NewStereoChain("master")
	chain.Add(a).Add(b)

	chain.Reset()

	if a.resets != 1 || b.resets != 1 {
		t.Errorf("resets = %d/%d, want 1/1", a.resets, b.resets)
	}
}

func TestProcessorFunc(t *testing.T) {
	var called bool
	f := ProcessorFunc(func(buf []float32) { called = true })
	f.Process(nil)
	f.Reset()

	if !called {
		t.Error("ProcessorFunc did not invoke the wrapped function")
	}
}
