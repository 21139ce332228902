// Package shm provides named, process-shareable memory regions used to carry
// the loudness histogram channel between the plugin process and a monitoring
// process. One side creates a region under a name, the other side connects to
// it; each side has an independent lifecycle.
package shm

import (
	"errors"
	"os"
	"path/filepath"
	"unsafe"
)

// Role describes which side of a region this process holds.
type Role int

const (
	// RoleUnattached means the region holds no mapping.
	RoleUnattached Role = iota
	// RoleCreated means this process allocated the backing memory and owns
	// its lifetime. Close releases the allocation.
	RoleCreated
	// RoleConnected means this process opened memory created elsewhere and
	// must never free or resize it. Close only detaches.
	RoleConnected
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleCreated:
		return "created"
	case RoleConnected:
		return "connected"
	default:
		return "unattached"
	}
}

var (
	// ErrAllocation indicates that creating a region failed, either because
	// the name is already in use or because the OS primitive failed.
	ErrAllocation = errors.New("shm: allocation failed")

	// ErrNotFound indicates that no region with the requested name exists.
	ErrNotFound = errors.New("shm: region not found")

	// ErrUnsupported indicates the platform has no shared memory support.
	ErrUnsupported = errors.New("shm: not supported on this platform")
)

// namePrefix keeps region files from colliding with unrelated files in the
// shared memory directory.
const namePrefix = "mastergo_"

// Region is a named shared memory mapping. The zero value is unattached;
// use Create or Connect to obtain a live region.
type Region struct {
	name string
	path string
	role Role
	file *os.File
	mem  []byte
}

// Create allocates a process-shareable memory block of size bytes addressable
// by name. It fails with an error wrapping ErrAllocation if the name is in
// use by a live creator or the OS primitive fails; a backing file left behind
// by a creator that died without Close is reclaimed. The caller owns the
// backing allocation and must call Close to release it.
func Create(name string, size int) (*Region, error) {
	return createRegion(name, size)
}

// Connect opens an existing region created elsewhere. It fails with an error
// wrapping ErrNotFound if no region with that name currently exists. The
// returned region does not own the backing memory.
func Connect(name string) (*Region, error) {
	return connectRegion(name)
}

// Name returns the name the region was created or connected under.
func (r *Region) Name() string { return r.name }

// Role returns which side of the region this process holds.
func (r *Region) Role() Role { return r.role }

// Size returns the size of the mapping in bytes, or 0 when unattached.
func (r *Region) Size() int { return len(r.mem) }

// Bytes returns the mapped bytes, or nil when unattached.
func (r *Region) Bytes() []byte { return r.mem }

// Pointer returns a raw pointer to the start of the mapping, or nil when
// unattached. Callers overlay their own typed view on top of it.
func (r *Region) Pointer() unsafe.Pointer {
	if len(r.mem) == 0 {
		return nil
	}
	return unsafe.Pointer(&r.mem[0])
}

// Close releases the region according to its role: a created region unmaps
// and removes the backing allocation, a connected region only detaches.
// Close is idempotent; closing twice is a no-op.
func (r *Region) Close() error {
	if r.role == RoleUnattached {
		return nil
	}

	var firstErr error

	if r.mem != nil {
		if err := unmapRegion(r.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		r.mem = nil
	}

	if r.file != nil {
		if err := r.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.file = nil
	}

	if r.role == RoleCreated {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}

	r.role = RoleUnattached
	return firstErr
}

// regionPath resolves the backing file path for a region name, preferring
// /dev/shm where available.
func regionPath(name string) string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", namePrefix+name)
	}
	return filepath.Join(os.TempDir(), namePrefix+name)
}
