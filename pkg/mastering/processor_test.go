package mastering

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/auricle-audio/mastergo/pkg/framework/process"
	"github.com/auricle-audio/mastergo/pkg/histogram"
)

// stubEngine is a pass-through engine with scripted loudness readings.
type stubEngine struct {
	in, out  float32
	computes int
	poison   bool // write NaN into the output
}

func (s *stubEngine) Compute(frames int, in, out [][]float32) {
	s.computes++
	for ch := 0; ch < 2; ch++ {
		copy(out[ch][:frames], in[ch][:frames])
	}
	if s.poison {
		out[0][0] = float32(math.NaN())
	}
}

func (s *stubEngine) LoudnessIn() float32  { return s.in }
func (s *stubEngine) LoudnessOut() float32 { return s.out }
func (s *stubEngine) Reset()               {}

func newTestProcessor(t *testing.T, eng Engine) (*Processor, *process.Context) {
	t.Helper()
	p := NewProcessor()
	p.engine = eng
	if err := p.Initialize(48000, 1024); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := p.SetActive(true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	ctx := process.NewContext(1024, p.GetParameters())
	ctx.SampleRate = 48000
	ctx.Input = [][]float32{make([]float32, 1024), make([]float32, 1024)}
	ctx.Output = [][]float32{make([]float32, 1024), make([]float32, 1024)}
	return p, ctx
}

func attachTestSession(t *testing.T, p *Processor, suffix string) *histogram.Channel {
	t.Helper()
	name := fmt.Sprintf("t%d-%s", os.Getpid(), suffix)
	if err := p.SetState(StateKeyHistogram, name); err != nil {
		t.Fatalf("SetState(histogram): %v", err)
	}
	t.Cleanup(func() { p.Close() })

	consumer, err := histogram.ConnectSession(name)
	if err != nil {
		t.Fatalf("ConnectSession: %v", err)
	}
	t.Cleanup(func() { consumer.Teardown() })
	return consumer
}

func TestProcessAudioFeedsHistogram(t *testing.T) {
	eng := &stubEngine{in: -20.0, out: -18.0}
	p, ctx := newTestProcessor(t, eng)
	consumer := attachTestSession(t, p, "feeds")

	p.ProcessAudio(ctx)

	if eng.computes != 1 {
		t.Fatalf("engine computed %d times in one callback, want exactly 1", eng.computes)
	}
	in := consumer.In().DrainAll()
	out := consumer.Out().DrainAll()
	if len(in) != 1 || in[0] != -20.0 {
		t.Errorf("consumer in = %v, want [-20]", in)
	}
	if len(out) != 1 || out[0] != -18.0 {
		t.Errorf("consumer out = %v, want [-18]", out)
	}

	// Loudness readings surface as output parameters.
	if got := p.GetParameters().Get(ParamLufsIn).GetPlainValue(); got != -20.0 {
		t.Errorf("lufs_in parameter = %f, want -20", got)
	}
	if got := p.GetParameters().Get(ParamLufsOut).GetPlainValue(); got != -18.0 {
		t.Errorf("lufs_out parameter = %f, want -18", got)
	}
}

func TestNonFiniteInputAbandonsCallback(t *testing.T) {
	eng := &stubEngine{in: -20.0, out: -18.0}
	p, ctx := newTestProcessor(t, eng)
	consumer := attachTestSession(t, p, "naninput")

	ctx.Input[0][37] = float32(math.NaN())
	ctx.Output[0][0] = 1.0
	p.ProcessAudio(ctx)

	if eng.computes != 0 {
		t.Error("engine ran on non-finite input")
	}
	if got := p.FaultCallbacks(); got != 1 {
		t.Errorf("FaultCallbacks() = %d, want 1", got)
	}
	if ctx.Output[0][0] != 0 {
		t.Error("output not cleared on abandoned callback")
	}
	if got := consumer.In().Len(); got != 0 {
		t.Errorf("ring received %d samples from an abandoned callback", got)
	}

	// Ring state stays intact: the next valid window flushes normally.
	ctx.Input[0][37] = 0
	p.ProcessAudio(ctx)
	if got := consumer.In().Len(); got != 1 {
		t.Errorf("ring holds %d samples after recovery, want 1", got)
	}
}

func TestNonFiniteEngineOutputAbandonsMetering(t *testing.T) {
	eng := &stubEngine{in: -20.0, out: -18.0, poison: true}
	p, ctx := newTestProcessor(t, eng)
	consumer := attachTestSession(t, p, "nanoutput")

	p.ProcessAudio(ctx)

	if got := p.FaultCallbacks(); got != 1 {
		t.Errorf("FaultCallbacks() = %d, want 1", got)
	}
	if got := consumer.In().Len(); got != 0 {
		t.Errorf("ring received %d samples from a poisoned engine", got)
	}
	if ctx.Output[0][0] != 0 {
		t.Error("poisoned output not replaced with silence")
	}
}

func TestBypassPassesThrough(t *testing.T) {
	eng := &stubEngine{}
	p, ctx := newTestProcessor(t, eng)
	p.GetParameters().SetPlain(ParamBypass, 1)

	ctx.Input[0][0] = 0.25
	ctx.Input[1][0] = -0.25
	p.ProcessAudio(ctx)

	if eng.computes != 0 {
		t.Error("engine ran while bypassed")
	}
	if ctx.Output[0][0] != 0.25 || ctx.Output[1][0] != -0.25 {
		t.Error("bypass did not pass the input through")
	}
}

func TestBufferSizeChangedUpdatesWindowParameter(t *testing.T) {
	p, _ := newTestProcessor(t, &stubEngine{})

	p.BufferSizeChanged(4096)
	if got := p.Aggregator().WindowFrames(); got != 4096 {
		t.Errorf("WindowFrames() = %d, want 4096", got)
	}
	if got := p.GetParameters().Get(ParamHistogramBufferSize).GetPlainValue(); got != 4096 {
		t.Errorf("histogram_buffer_size = %f, want 4096", got)
	}

	// Below the floor the window clamps and the parameter follows.
	p.BufferSizeChanged(64)
	if got := p.GetParameters().Get(ParamHistogramBufferSize).GetPlainValue(); got != 1024 {
		t.Errorf("histogram_buffer_size = %f, want the 1024 floor", got)
	}
}

func TestStateModeKey(t *testing.T) {
	p := NewProcessor()

	if got := p.GetState(StateKeyMode); got != "simple" {
		t.Errorf(`default mode = %q, want "simple"`, got)
	}
	if err := p.SetState(StateKeyMode, "expert"); err != nil {
		t.Fatalf("SetState(mode): %v", err)
	}
	if got := p.GetState(StateKeyMode); got != "expert" {
		t.Errorf("mode = %q, want %q", got, "expert")
	}

	// Clearing the mode restores the default.
	if err := p.SetState(StateKeyMode, ""); err != nil {
		t.Fatalf("SetState(mode, empty): %v", err)
	}
	if got := p.GetState(StateKeyMode); got != "simple" {
		t.Errorf("cleared mode = %q, want the default", got)
	}

	if err := p.SetState("bogus", "x"); err == nil {
		t.Error("SetState accepted an unknown key")
	}
}

func TestHistogramStateKeyRotatesSessions(t *testing.T) {
	p, _ := newTestProcessor(t, &stubEngine{})
	first := fmt.Sprintf("t%d-rot-a", os.Getpid())
	second := fmt.Sprintf("t%d-rot-b", os.Getpid())
	defer p.Close()

	if err := p.SetState(StateKeyHistogram, first); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if got := p.GetState(StateKeyHistogram); got != first {
		t.Errorf("GetState(histogram) = %q, want %q", got, first)
	}
	if !p.Aggregator().Active() {
		t.Error("aggregator inactive after session create")
	}

	// Rotating to a second name tears the first down.
	if err := p.SetState(StateKeyHistogram, second); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if _, err := histogram.ConnectSession(first); err == nil {
		t.Error("first session still connectable after rotation")
	}
	consumer, err := histogram.ConnectSession(second)
	if err != nil {
		t.Fatalf("ConnectSession(second): %v", err)
	}
	consumer.Teardown()

	// Empty name detaches without error.
	if err := p.SetState(StateKeyHistogram, ""); err != nil {
		t.Fatalf("SetState(empty): %v", err)
	}
	if p.Aggregator().Active() {
		t.Error("aggregator active after detach")
	}
}

func TestStateSnapshotRoundTrip(t *testing.T) {
	p := NewProcessor()
	p.GetParameters().SetPlain(ParamTarget, -23)
	p.GetParameters().SetPlain(ParamCeiling, -2)

	var buf bytes.Buffer
	if err := p.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	restored := NewProcessor()
	if err := restored.LoadState(&buf); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := restored.GetParameters().Get(ParamTarget).GetPlainValue(); got != -23 {
		t.Errorf("restored target = %f, want -23", got)
	}
	if got := restored.GetParameters().Get(ParamCeiling).GetPlainValue(); got != -2 {
		t.Errorf("restored ceiling = %f, want -2", got)
	}
}

func TestPresets(t *testing.T) {
	p := NewProcessor()

	if p.ProgramCount() == 0 {
		t.Fatal("no presets registered")
	}
	if got := p.ProgramName(0); got == "" {
		t.Error("preset 0 has no name")
	}
	if got := p.ProgramName(99); got != "" {
		t.Errorf("out-of-range preset name = %q, want empty", got)
	}

	p.GetParameters().SetPlain(ParamBypass, 1)
	if err := p.LoadProgram(2); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}

	if got := p.GetParameters().Get(ParamTarget).GetPlainValue(); got != -18 {
		t.Errorf("target after Podcast preset = %f, want -18", got)
	}
	if got := p.GetParameters().Get(ParamBypass).GetPlainValue(); got != 1 {
		t.Error("preset load changed the bypass parameter")
	}
}
