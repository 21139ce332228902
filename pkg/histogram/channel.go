package histogram

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/auricle-audio/mastergo/pkg/shm"
)

// Shared memory layout of a session:
//
//	channelHeader          (64 bytes)
//	input loudness ring    (ringHeader + slots, 64-byte aligned)
//	output loudness ring   (ringHeader + slots, 64-byte aligned)
//
// There is no version field; a consumer must be built against the same
// layout as the producer. The header records the slot capacity so the
// consumer can validate the mapping it connected to.
type channelHeader struct {
	capacity uint64
	closed   uint32
	_        [52]byte
}

const channelHeaderSize = 64

// DefaultCapacity is the per-ring slot capacity used for a session unless
// the caller asks for another power of two. At the minimum measurement
// window of 1024 frames and 48 kHz, 512 slots hold roughly ten seconds of
// loudness history.
const DefaultCapacity = 512

// ErrIncompatible indicates a connected region whose contents do not match
// the histogram session layout. The consumer should treat it like a session
// that ended.
var ErrIncompatible = errors.New("histogram: incompatible session layout")

// align64 rounds n up to a 64-byte boundary.
func align64(n int) int {
	return (n + 63) &^ 63
}

// sessionSize returns the region size for a session with the given per-ring
// capacity.
func sessionSize(capacity int) int {
	size := align64(channelHeaderSize)
	size = align64(size + ringSize(capacity))
	size = align64(size + ringSize(capacity))
	return size
}

// Channel pairs the input and output loudness rings with the closed flag in
// one shared region. The producer creates a session; any number of
// consumers may connect and detach over its lifetime, one at a time. Every
// shared field has exactly one writer role: the producer writes the rings,
// the consumer writes the closed flag.
type Channel struct {
	region *shm.Region
	hdr    *channelHeader
	in     *Ring
	out    *Ring
}

// CreateSession allocates a session region under name and lays out both
// rings. Producer side. capacity must be a power of two of at least two
// slots; pass DefaultCapacity unless the session needs something else.
// On failure the error wraps shm.ErrAllocation and the producer is expected
// to keep running with metering inert.
func CreateSession(name string, capacity int) (*Channel, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: capacity %d is not a power of two", shm.ErrAllocation, capacity)
	}

	region, err := shm.Create(name, sessionSize(capacity))
	if err != nil {
		return nil, err
	}

	base := region.Pointer()
	ch := &Channel{region: region, hdr: (*channelHeader)(base)}
	ch.hdr.capacity = uint64(capacity)
	atomic.StoreUint32(&ch.hdr.closed, 0)

	inOff := align64(channelHeaderSize)
	outOff := align64(inOff + ringSize(capacity))
	ch.in = initRing(unsafe.Pointer(uintptr(base)+uintptr(inOff)), capacity)
	ch.out = initRing(unsafe.Pointer(uintptr(base)+uintptr(outOff)), capacity)

	return ch, nil
}

// ConnectSession opens a session created by a producer elsewhere. Consumer
// side. It fails with an error wrapping shm.ErrNotFound when the producer
// has not created a session under that name, and with ErrIncompatible when
// the mapping does not carry a valid session.
func ConnectSession(name string) (*Channel, error) {
	region, err := shm.Connect(name)
	if err != nil {
		return nil, err
	}

	hdr := (*channelHeader)(region.Pointer())
	capacity := int(hdr.capacity)
	if capacity < 2 || capacity&(capacity-1) != 0 || region.Size() < sessionSize(capacity) {
		region.Close()
		return nil, fmt.Errorf("%w: %q", ErrIncompatible, name)
	}

	base := region.Pointer()
	inOff := align64(channelHeaderSize)
	outOff := align64(inOff + ringSize(capacity))

	return &Channel{
		region: region,
		hdr:    hdr,
		in:     attachRing(unsafe.Pointer(uintptr(base) + uintptr(inOff))),
		out:    attachRing(unsafe.Pointer(uintptr(base) + uintptr(outOff))),
	}, nil
}

// In returns the input loudness ring.
func (c *Channel) In() *Ring { return c.in }

// Out returns the output loudness ring.
func (c *Channel) Out() *Ring { return c.out }

// Name returns the session name.
func (c *Channel) Name() string { return c.region.Name() }

// Capacity returns the per-ring slot capacity of the session.
func (c *Channel) Capacity() int { return int(c.hdr.capacity) }

// SignalClosed marks the session closed so the producer stops writing on its
// next measurement window. Consumer side, or the teardown path.
func (c *Channel) SignalClosed() {
	atomic.StoreUint32(&c.hdr.closed, 1)
}

// IsClosed reports whether a consumer signalled the session closed. The
// producer polls this once per measurement window, which bounds detection
// latency at one full window.
func (c *Channel) IsClosed() bool {
	return atomic.LoadUint32(&c.hdr.closed) != 0
}

// Teardown releases the shared region according to the side this process
// holds: the creator frees the backing allocation, a consumer only detaches.
// Idempotent.
func (c *Channel) Teardown() error {
	return c.region.Close()
}
