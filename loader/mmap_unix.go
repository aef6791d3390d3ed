//go:build unix

package loader

import (
	"os"

	"golang.org/x/sys/unix"
)

const canMap = true

func mapFile(path string, length int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// The mapping stays valid after the descriptor is closed.
	return unix.Mmap(int(f.Fd()), 0, length, unix.PROT_READ, unix.MAP_SHARED)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}
