package plugin

import (
	"github.com/auricle-audio/mastergo/pkg/framework/bus"
	"github.com/auricle-audio/mastergo/pkg/framework/param"
)

// BaseProcessor provides the common plumbing processors embed: parameter
// registry, bus configuration, sample rate bookkeeping and optional
// lifecycle callbacks.
type BaseProcessor struct {
	params     *param.Registry
	buses      *bus.Configuration
	sampleRate float64

	onInitialize func(sampleRate float64, maxBlockSize int32) error
	onSetActive  func(active bool) error
	onReset      func()
}

// NewBaseProcessor creates a base processor with the given bus
// configuration, defaulting to stereo.
func NewBaseProcessor(buses *bus.Configuration) *BaseProcessor {
	if buses == nil {
		buses = bus.NewStereoConfiguration()
	}
	return &BaseProcessor{
		params: param.NewRegistry(),
		buses:  buses,
	}
}

// Initialize implements the Processor interface.
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	b.sampleRate = sampleRate
	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}
	return nil
}

// SetActive implements the Processor interface. Activation triggers the
// reset callback so measurement state starts clean.
func (b *BaseProcessor) SetActive(active bool) error {
	if active && b.onReset != nil {
		b.onReset()
	}
	if b.onSetActive != nil {
		return b.onSetActive(active)
	}
	return nil
}

// BufferSizeChanged implements the Processor interface; embedders override.
func (b *BaseProcessor) BufferSizeChanged(uint32) {}

// GetParameters implements the Processor interface.
func (b *BaseProcessor) GetParameters() *param.Registry {
	return b.params
}

// GetBuses implements the Processor interface.
func (b *BaseProcessor) GetBuses() *bus.Configuration {
	return b.buses
}

// SampleRate returns the current sample rate.
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// Parameters returns the parameter registry for configuration.
func (b *BaseProcessor) Parameters() *param.Registry {
	return b.params
}

// OnInitialize sets a callback for initialization.
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation and deactivation.
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnReset sets a callback run on every activation.
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}
