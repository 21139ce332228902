// Package histogram implements the cross-process loudness histogram channel:
// a pair of single-producer/single-consumer rings of loudness samples living
// in a shared memory region, plus the per-window aggregator that feeds them
// from the audio thread. The producer side is wait-free: nothing in the write
// path blocks, allocates or takes a lock.
package histogram

import (
	"iter"
	"math"
	"sync/atomic"
	"unsafe"
)

// ringHeader is the in-memory layout of a ring's control block inside the
// shared region. The write cursor is advanced only by the producer and the
// read cursor only by the consumer; both are monotonic and wrapped with a
// power-of-two mask. The cursors sit on separate cache lines so the two
// processes never contend on the same line.
type ringHeader struct {
	capacity uint64
	widx     uint64
	_        [48]byte
	ridx     uint64
	_        [56]byte
}

// ringHeaderSize is the byte size of ringHeader. Slots follow immediately.
const ringHeaderSize = 128

// Ring is a fixed-capacity SPSC ring of float32 loudness samples over raw
// shared memory. Samples are stored as uint32 bit patterns and accessed
// atomically, so a concurrent reader can never observe a torn slot.
type Ring struct {
	hdr   *ringHeader
	slots []uint32
	mask  uint64
}

// ringSize returns the number of bytes a ring with the given slot capacity
// occupies inside a region.
func ringSize(capacity int) int {
	return ringHeaderSize + 4*capacity
}

// initRing lays out a fresh ring at p. Producer side only, once per session.
func initRing(p unsafe.Pointer, capacity int) *Ring {
	hdr := (*ringHeader)(p)
	hdr.capacity = uint64(capacity)
	atomic.StoreUint64(&hdr.widx, 0)
	atomic.StoreUint64(&hdr.ridx, 0)
	return attachRing(p)
}

// attachRing overlays a ring view on memory previously laid out by initRing,
// possibly in another process.
func attachRing(p unsafe.Pointer) *Ring {
	hdr := (*ringHeader)(p)
	capacity := hdr.capacity
	slotBase := (*uint32)(unsafe.Pointer(uintptr(p) + ringHeaderSize))
	return &Ring{
		hdr:   hdr,
		slots: unsafe.Slice(slotBase, capacity),
		mask:  capacity - 1,
	}
}

// Capacity returns the fixed slot capacity of the ring.
func (r *Ring) Capacity() int { return int(r.hdr.capacity) }

// Len returns the number of samples currently readable. Monotonic cursor
// subtraction handles wrap-around; a lagging consumer reports at most
// Capacity.
func (r *Ring) Len() int {
	w := atomic.LoadUint64(&r.hdr.widx)
	rd := atomic.LoadUint64(&r.hdr.ridx)
	n := w - rd
	if n > r.hdr.capacity {
		n = r.hdr.capacity
	}
	return int(n)
}

// Write publishes one sample. Producer only. It never blocks and never
// fails: when the ring is full the oldest unread sample is overwritten. The
// slot store happens before the cursor store, so the consumer only observes
// the cursor move after the sample it protects is fully written.
func (r *Ring) Write(sample float32) {
	w := atomic.LoadUint64(&r.hdr.widx)
	atomic.StoreUint32(&r.slots[w&r.mask], math.Float32bits(sample))
	atomic.StoreUint64(&r.hdr.widx, w+1)
}

// TryRead pops the oldest available sample. Consumer only. It returns false
// when the ring is empty. A consumer that fell more than Capacity samples
// behind fast-forwards its own cursor to the oldest surviving sample; the
// producer never touches the read cursor.
func (r *Ring) TryRead() (float32, bool) {
	rd := atomic.LoadUint64(&r.hdr.ridx)
	w := atomic.LoadUint64(&r.hdr.widx)
	if w == rd {
		return 0, false
	}
	if w-rd > r.hdr.capacity {
		rd = w - r.hdr.capacity
	}
	v := atomic.LoadUint32(&r.slots[rd&r.mask])
	atomic.StoreUint64(&r.hdr.ridx, rd+1)
	return math.Float32frombits(v), true
}

// Drain returns a finite sequence of the samples available at the time of
// the call, draining the ring as it is iterated. Each call starts a fresh
// drain. Consumer only.
func (r *Ring) Drain() iter.Seq[float32] {
	end := atomic.LoadUint64(&r.hdr.widx)
	return func(yield func(float32) bool) {
		for atomic.LoadUint64(&r.hdr.ridx) < end {
			v, ok := r.TryRead()
			if !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// DrainAll drains every currently available sample into a new slice.
// Consumer convenience; not for the real-time side.
func (r *Ring) DrainAll() []float32 {
	out := make([]float32, 0, r.Len())
	for v := range r.Drain() {
		out = append(out, v)
	}
	return out
}
