// Package process provides the per-callback audio processing context. The
// context and everything reachable from it is allocation-free once built:
// the audio thread only slices pre-allocated buffers.
package process

import (
	"github.com/auricle-audio/mastergo/pkg/framework/param"
)

// Context carries one callback's worth of audio and parameter access.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// Pre-allocated scratch, sized to the maximum block size.
	workBuffer []float32

	params *param.Registry
}

// NewContext creates a process context with pre-allocated buffers.
func NewContext(maxBlockSize int, params *param.Registry) *Context {
	return &Context{
		workBuffer: make([]float32, maxBlockSize),
		params:     params,
	}
}

// Param returns the current normalized value of a parameter.
func (c *Context) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter.
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// SetParamPlain stores a plain value into a parameter, typically an output
// parameter the plugin reports back to the host.
func (c *Context) SetParamPlain(id uint32, plain float64) {
	if p := c.params.Get(id); p != nil {
		p.SetPlainValue(plain)
	}
}

// NumSamples returns the number of frames in this callback.
func (c *Context) NumSamples() int {
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels.
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels.
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns the scratch buffer sliced to the current block size.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.NumSamples()]
}

// PassThrough copies input to output, for bypass.
func (c *Context) PassThrough() {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeroes the output buffers.
func (c *Context) Clear() {
	for ch := range c.Output {
		for i := range c.Output[ch] {
			c.Output[ch][i] = 0
		}
	}
}
