// Package dsp provides processor chaining for building the mastering
// engine out of individual DSP stages.
package dsp

// Processor represents a DSP stage that processes one channel in place.
type Processor interface {
	Process(buffer []float32)
	Reset()
}

// StereoProcessor represents a DSP stage that processes both channels.
type StereoProcessor interface {
	ProcessStereo(left, right []float32)
	Reset()
}

// ProcessorFunc allows using a function as a Processor.
type ProcessorFunc func([]float32)

// Process implements Processor.
func (f ProcessorFunc) Process(buffer []float32) {
	f(buffer)
}

// Reset implements Processor.
func (ProcessorFunc) Reset() {}

// StereoChain runs stereo DSP stages in order. All stages are added before
// processing starts; Process itself never allocates.
type StereoChain struct {
	processors []StereoProcessor
	name       string
	bypass     bool
}

// NewStereoChain creates a stereo chain.
func NewStereoChain(name string) *StereoChain {
	return &StereoChain{
		name:       name,
		processors: make([]StereoProcessor, 0),
	}
}

// Add appends a stage and returns the chain for chaining calls.
func (c *StereoChain) Add(processor StereoProcessor) *StereoChain {
	c.processors = append(c.processors, processor)
	return c
}

// ProcessStereo runs every stage over the block in order.
func (c *StereoChain) ProcessStereo(left, right []float32) {
	if c.bypass {
		return
	}
	for _, processor := range c.processors {
		processor.ProcessStereo(left, right)
	}
}

// Reset resets every stage.
func (c *StereoChain) Reset() {
	for _, processor := range c.processors {
		processor.Reset()
	}
}

// SetBypass sets the bypass state of the chain.
func (c *StereoChain) SetBypass(bypass bool) {
	c.bypass = bypass
}

// Count returns the number of stages.
func (c *StereoChain) Count() int {
	return len(c.processors)
}

// Name returns the chain's name.
func (c *StereoChain) Name() string {
	return c.name
}
