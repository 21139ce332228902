//go:build unix

package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func createRegion(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAllocation, size)
	}

	path := regionPath(name)

	// Exclusive create: a second creator for the same name must fail.
	// The creator holds an exclusive flock on the backing file for the
	// region's lifetime; the kernel drops it when the process dies, so
	// a collision with a lockable file means a crashed creator and the
	// name can be taken over.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("%w: create %s: %v", ErrAllocation, path, err)
		}
		file, err = reclaimRegion(path)
		if err != nil {
			return nil, err
		}
	} else if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: lock %s: %v", ErrAllocation, path, err)
	}

	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: resize %s: %v", ErrAllocation, path, err)
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrAllocation, path, err)
	}

	return &Region{name: name, path: path, role: RoleCreated, file: file, mem: mem}, nil
}

// reclaimRegion takes over a backing file whose creator exited without
// Close. A live creator keeps its exclusive lock, so the non-blocking
// lock succeeding proves the file is stale. The file is emptied before
// reuse; a fresh session must never see the dead one's contents.
func reclaimRegion(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrAllocation, path, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s is in use", ErrAllocation, path)
	}
	if err := file.Truncate(0); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: reset %s: %v", ErrAllocation, path, err)
	}
	return file, nil
}

func connectRegion(name string) (*Region, error) {
	path := regionPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrNotFound, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrNotFound, path, err)
	}
	if info.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, name)
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrNotFound, path, err)
	}

	return &Region{name: name, path: path, role: RoleConnected, file: file, mem: mem}, nil
}

func unmapRegion(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	return unix.Munmap(mem)
}
