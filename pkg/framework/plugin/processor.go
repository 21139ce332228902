package plugin

import (
	"github.com/auricle-audio/mastergo/pkg/framework/bus"
	"github.com/auricle-audio/mastergo/pkg/framework/param"
	"github.com/auricle-audio/mastergo/pkg/framework/process"
)

// Processor is what the host drives. ProcessAudio runs on the real-time
// thread and must not block, allocate or take a lock; every other method is
// called from the host's main context, serialized with respect to the audio
// callback by the host.
type Processor interface {
	// Initialize prepares the processor for a sample rate and the largest
	// block the host will deliver.
	Initialize(sampleRate float64, maxBlockSize int32) error

	// SetActive starts or stops processing. Activation resets measurement
	// state.
	SetActive(active bool) error

	// ProcessAudio processes one block. Real-time path.
	ProcessAudio(ctx *process.Context)

	// BufferSizeChanged notifies the processor that the host changed its
	// audio buffer size.
	BufferSizeChanged(frames uint32)

	// GetParameters returns the parameter registry.
	GetParameters() *param.Registry

	// GetBuses returns the audio bus configuration.
	GetBuses() *bus.Configuration
}

// StateHandler is implemented by processors that accept string-keyed state
// from the host, like the UI mode or the histogram session name.
type StateHandler interface {
	SetState(key, value string) error
	GetState(key string) string
}

// ProgramHandler is implemented by processors that expose a preset program
// table to the host.
type ProgramHandler interface {
	ProgramCount() int32
	ProgramName(index int32) string
	LoadProgram(index int32) error
}
