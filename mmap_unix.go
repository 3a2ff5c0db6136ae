//go:build unix

package filehasher

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const mappingSupported = true

// mappedRegion is a read-only memory mapping of a whole file. The region
// must outlive every worker holding a borrowed job into it; the driver
// closes it only after both pools have been waited.
type mappedRegion struct {
	data []byte
}

func mapFile(path string) (*mappedRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file [%s]: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to map file [%s]: %w", path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to map file [%s]: %w", path, err)
	}
	return &mappedRegion{data: data}, nil
}

// Bytes returns the mapped contents. Valid until Close.
func (r *mappedRegion) Bytes() []byte { return r.data }

// Close unmaps the region. Idempotent.
func (r *mappedRegion) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	return unix.Munmap(data)
}
