package histogram

import "sync/atomic"

const (
	// MinimumWindowFrames is the floor for the measurement window. The
	// window never shrinks below it no matter how small the host buffer
	// gets, which bounds the rate of cross-process writes.
	MinimumWindowFrames = 1024

	// SilenceFloor is the loudness value peaks reset to, representing
	// "no signal observed yet".
	SilenceFloor float32 = -70.0
)

// Aggregator reduces the continuous audio stream to one histogram sample
// pair per measurement window. Observe runs on the audio thread and is
// wait-free. The channel binding, window size and activity flags travel
// through atomics and may change at any time; AttachChannel, DetachChannel
// and OnReset additionally write the plain accumulation fields and rely on
// the host serializing them against the audio callback, per the contract on
// plugin.Processor.
type Aggregator struct {
	channel      atomic.Pointer[Channel]
	windowFrames atomic.Uint32
	active       atomic.Bool
	suppressed   atomic.Bool

	// Accumulation state, owned by the audio thread. The host-context
	// resets in AttachChannel and OnReset are serialized against
	// Observe by the host.
	framesSoFar uint32
	peakIn      float32
	peakOut     float32
}

// NewAggregator returns an aggregator with the minimum window and no session
// attached.
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.windowFrames.Store(MinimumWindowFrames)
	a.peakIn = SilenceFloor
	a.peakOut = SilenceFloor
	return a
}

// AttachChannel binds a session and (re)activates channel writes. Any
// loudness accumulated while a previous session was closed is discarded:
// stale peaks from one session never leak into another.
func (a *Aggregator) AttachChannel(ch *Channel) {
	a.channel.Store(ch)
	a.framesSoFar = 0
	a.peakIn = SilenceFloor
	a.peakOut = SilenceFloor
	a.suppressed.Store(false)
	a.active.Store(ch != nil)
}

// DetachChannel deactivates channel writes and unbinds the session. The
// aggregator keeps running with metering inert.
func (a *Aggregator) DetachChannel() {
	a.active.Store(false)
	a.suppressed.Store(false)
	a.channel.Store(nil)
}

// Channel returns the currently bound session, or nil.
func (a *Aggregator) Channel() *Channel {
	return a.channel.Load()
}

// Active reports whether flushes currently reach the rings. It turns false
// once a consumer signals the session closed, until an explicit reattach.
func (a *Aggregator) Active() bool {
	return a.active.Load()
}

// WindowFrames returns the current flush threshold in frames.
func (a *Aggregator) WindowFrames() uint32 {
	return a.windowFrames.Load()
}

// OnBufferSizeChanged recomputes the flush threshold for a new host buffer
// size. The window must hold at least one full host callback, otherwise a
// single callback would flush more than once and defeat the downsampling;
// beyond the floor it tracks the host buffer exactly.
func (a *Aggregator) OnBufferSizeChanged(newSize uint32) {
	if newSize < MinimumWindowFrames {
		newSize = MinimumWindowFrames
	}
	a.windowFrames.Store(newSize)
}

// OnReset zeroes the frame counter and resets both peaks to the silence
// floor. Called on every activation of the processing loop.
func (a *Aggregator) OnReset() {
	a.framesSoFar = 0
	a.peakIn = SilenceFloor
	a.peakOut = SilenceFloor
}

// Observe folds one audio callback into the current window: peaks track the
// instantaneous loudness readings with max, the frame counter advances by
// frames. When the counter crosses the window threshold the overshoot is
// carried over, not discarded, so windows do not drift over long sessions.
//
// On a window boundary with an attached, open session both peak values are
// written to their rings and the peaks reset. If the consumer marked the
// session closed, writes deactivate and the peaks are deliberately not
// reset: accumulation continues silently until reattach or session end.
// Audio thread only; wait-free.
func (a *Aggregator) Observe(frames uint32, inLoudness, outLoudness float32) {
	if inLoudness > a.peakIn {
		a.peakIn = inLoudness
	}
	if outLoudness > a.peakOut {
		a.peakOut = outLoudness
	}

	a.framesSoFar += frames
	window := a.windowFrames.Load()
	if a.framesSoFar < window {
		return
	}
	a.framesSoFar -= window

	if a.active.Load() {
		ch := a.channel.Load()
		if ch != nil && ch.IsClosed() {
			// Suppressed flush: keep accumulating.
			a.active.Store(false)
			a.suppressed.Store(true)
			return
		}
		if ch != nil {
			ch.In().Write(a.peakIn)
			ch.Out().Write(a.peakOut)
		}
	} else if a.suppressed.Load() {
		// The consumer closed the session; peaks keep rising until an
		// explicit reattach or session end.
		return
	}

	a.peakIn = SilenceFloor
	a.peakOut = SilenceFloor
}
