//go:build !unix

package loader

import "errors"

const canMap = false

func mapFile(string, int) ([]byte, error) {
	return nil, errors.New("memory mapping is not supported on this platform")
}

func unmap([]byte) error {
	return nil
}
