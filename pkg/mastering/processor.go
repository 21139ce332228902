package mastering

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/auricle-audio/mastergo/pkg/framework/debug"
	"github.com/auricle-audio/mastergo/pkg/framework/param"
	"github.com/auricle-audio/mastergo/pkg/framework/plugin"
	"github.com/auricle-audio/mastergo/pkg/framework/process"
	"github.com/auricle-audio/mastergo/pkg/framework/state"
	"github.com/auricle-audio/mastergo/pkg/histogram"
)

// Parameter IDs.
const (
	ParamBypass        uint32 = 0
	ParamTarget        uint32 = 1
	ParamGateThreshold uint32 = 2
	ParamCeiling       uint32 = 3
	ParamLevelerSpeed  uint32 = 4

	ParamLufsIn              uint32 = 10
	ParamLufsOut             uint32 = 11
	ParamHistogramBufferSize uint32 = 12
)

// State keys accepted by SetState.
const (
	StateKeyMode      = "mode"
	StateKeyHistogram = "histogram"

	defaultMode = "simple"
)

// Processor is the mastering plugin. It owns the DSP engine, publishes
// loudness readings as output parameters, and when a histogram session
// is configured it is the producing side of the shared-memory channel.
type Processor struct {
	*plugin.BaseProcessor

	engine     Engine
	aggregator *histogram.Aggregator
	state      *state.Manager

	// Counts callbacks abandoned over non-finite samples. The audio
	// thread only increments; logging happens elsewhere.
	faultCallbacks atomic.Uint64

	// Host-context state. The audio thread never touches these; it
	// reaches the session only through the aggregator's atomics.
	mu          sync.Mutex
	mode        string
	session     *histogram.Channel
	sessionName string
	program     int32
}

var (
	_ plugin.Processor      = (*Processor)(nil)
	_ plugin.StateHandler   = (*Processor)(nil)
	_ plugin.ProgramHandler = (*Processor)(nil)
)

// NewProcessor creates the mastering processor with its full parameter
// surface registered.
func NewProcessor() *Processor {
	p := &Processor{
		BaseProcessor: plugin.NewBaseProcessor(nil),
		aggregator:    histogram.NewAggregator(),
		mode:          defaultMode,
	}

	p.Parameters().Add(
		param.New(ParamBypass, "Bypass").Bypass().Build(),
		param.New(ParamTarget, "Target").
			Range(-30, -10).Default(-16).Unit("dB").
			Formatter(param.DecibelFormatter, param.DecibelParser).
			Build(),
		param.New(ParamGateThreshold, "Gate Threshold").
			Range(-90, -20).Default(-60).Unit("dB").
			Formatter(param.DecibelFormatter, param.DecibelParser).
			Build(),
		param.New(ParamCeiling, "Ceiling").
			Range(-6, 0).Default(-0.3).Unit("dB").
			Formatter(param.DecibelFormatter, param.DecibelParser).
			Build(),
		param.New(ParamLevelerSpeed, "Leveler Speed").
			Range(0.5, 10).Default(2).Unit("s").
			Build(),
		param.New(ParamLufsIn, "Input Loudness").
			Range(-70, 0).Default(-70).Unit("LUFS").Output().
			Formatter(param.LoudnessFormatter, param.LoudnessParser).
			Build(),
		param.New(ParamLufsOut, "Output Loudness").
			Range(-70, 0).Default(-70).Unit("LUFS").Output().
			Formatter(param.LoudnessFormatter, param.LoudnessParser).
			Build(),
		param.New(ParamHistogramBufferSize, "Histogram Buffer Size").
			Range(1024, 16384).Default(1024).Unit("frames").Output().
			Formatter(param.FramesFormatter, param.FramesParser).
			Build(),
	)

	p.state = state.NewManager(p.Parameters())

	p.OnInitialize(func(sampleRate float64, maxBlockSize int32) error {
		if p.engine == nil {
			p.engine = NewReferenceEngine(sampleRate)
		}
		return nil
	})
	p.OnReset(func() {
		if p.engine != nil {
			p.engine.Reset()
		}
		p.aggregator.OnReset()
	})

	return p
}

// Aggregator exposes the metering aggregator, mainly for the host shell
// and tests.
func (p *Processor) Aggregator() *histogram.Aggregator {
	return p.aggregator
}

// FaultCallbacks returns how many callbacks were abandoned over
// non-finite samples.
func (p *Processor) FaultCallbacks() uint64 {
	return p.faultCallbacks.Load()
}

// BufferSizeChanged implements plugin.Processor. The measurement window
// follows the host buffer size so one window never spans more than one
// flush per callback.
func (p *Processor) BufferSizeChanged(frames uint32) {
	p.aggregator.OnBufferSizeChanged(frames)
	if par := p.Parameters().Get(ParamHistogramBufferSize); par != nil {
		par.SetPlainValue(float64(p.aggregator.WindowFrames()))
	}
}

// ProcessAudio implements plugin.Processor. Real-time path.
func (p *Processor) ProcessAudio(ctx *process.Context) {
	frames := ctx.NumSamples()
	if frames == 0 || ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		ctx.Clear()
		return
	}

	if !finiteStereo(ctx.Input, frames) {
		p.faultCallbacks.Add(1)
		ctx.Clear()
		return
	}

	if ctx.ParamPlain(ParamBypass) >= 0.5 {
		ctx.PassThrough()
		return
	}

	eng := p.engine
	if eng == nil {
		ctx.PassThrough()
		return
	}

	p.applyParams(ctx, eng)
	eng.Compute(frames, ctx.Input, ctx.Output)

	// A blown-up engine must not poison the histogram. Output is
	// replaced with silence and this window's metering is dropped;
	// the rings stay intact for later valid windows.
	if !finiteStereo(ctx.Output, frames) {
		p.faultCallbacks.Add(1)
		ctx.Clear()
		return
	}

	lufsIn := eng.LoudnessIn()
	lufsOut := eng.LoudnessOut()
	p.aggregator.Observe(uint32(frames), lufsIn, lufsOut)

	ctx.SetParamPlain(ParamLufsIn, float64(lufsIn))
	ctx.SetParamPlain(ParamLufsOut, float64(lufsOut))
	ctx.SetParamPlain(ParamHistogramBufferSize, float64(p.aggregator.WindowFrames()))
}

func (p *Processor) applyParams(ctx *process.Context, eng Engine) {
	ref, ok := eng.(*ReferenceEngine)
	if !ok {
		return
	}
	ref.SetTarget(ctx.ParamPlain(ParamTarget))
	ref.SetGateThreshold(ctx.ParamPlain(ParamGateThreshold))
	ref.SetCeiling(ctx.ParamPlain(ParamCeiling))
	ref.SetLevelerSpeed(ctx.ParamPlain(ParamLevelerSpeed))
}

func finiteStereo(channels [][]float32, frames int) bool {
	for ch := 0; ch < 2; ch++ {
		buf := channels[ch]
		for i := 0; i < frames; i++ {
			f := float64(buf[i])
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}

// SetState implements plugin.StateHandler. Setting the histogram key
// tears down any previous session, creates a fresh one under the given
// name and attaches the aggregator to it. An empty name detaches.
func (p *Processor) SetState(key, value string) error {
	switch key {
	case StateKeyMode:
		p.mu.Lock()
		if value == "" {
			value = defaultMode
		}
		p.mode = value
		p.mu.Unlock()
		return nil

	case StateKeyHistogram:
		return p.setHistogramSession(value)

	default:
		return fmt.Errorf("unknown state key %q", key)
	}
}

// GetState implements plugin.StateHandler.
func (p *Processor) GetState(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch key {
	case StateKeyMode:
		return p.mode
	case StateKeyHistogram:
		return p.sessionName
	default:
		return ""
	}
}

func (p *Processor) setHistogramSession(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Detach before teardown so the audio thread cannot observe a
	// channel whose mapping is going away.
	p.aggregator.DetachChannel()
	if p.session != nil {
		if err := p.session.Teardown(); err != nil {
			debug.Warn("histogram session %q teardown: %v", p.sessionName, err)
		}
		p.session = nil
		p.sessionName = ""
	}

	if name == "" {
		return nil
	}

	ch, err := histogram.CreateSession(name, histogram.DefaultCapacity)
	if err != nil {
		return fmt.Errorf("create histogram session %q: %w", name, err)
	}
	p.session = ch
	p.sessionName = name
	p.aggregator.AttachChannel(ch)
	debug.Info("histogram session %q attached, capacity %d", name, ch.Capacity())
	return nil
}

// SaveState writes the parameter snapshot to w. The string states
// ("mode", "histogram") travel separately through GetState.
func (p *Processor) SaveState(w io.Writer) error {
	return p.state.Save(w)
}

// LoadState restores a parameter snapshot from r.
func (p *Processor) LoadState(r io.Reader) error {
	return p.state.Load(r)
}

// Close tears down the histogram session. Call after the host stops the
// audio thread.
func (p *Processor) Close() error {
	return p.setHistogramSession("")
}
