//go:build !unix

package shm

func createRegion(string, int) (*Region, error) {
	return nil, ErrUnsupported
}

func connectRegion(string) (*Region, error) {
	return nil, ErrUnsupported
}

func unmapRegion([]byte) error {
	return nil
}
