//go:build !unix

package tablelm

import (
	"errors"
	"os"
)

// readModelFile reads the whole file; mmap is only used on unix builds.
func readModelFile(path string, _ bool) ([]byte, int64, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, nil, err
	}
	if len(data) == 0 {
		return nil, 0, nil, errors.New("model file is empty")
	}
	return data, int64(len(data)), func() {}, nil
}
