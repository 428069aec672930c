//go:build unix

package tablelm

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// readModelFile returns the file contents and a release func. With useMmap
// the bytes are a read-only shared mapping that is valid until release.
func readModelFile(path string, useMmap bool) ([]byte, int64, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, 0, nil, err
	}
	size := st.Size()
	if size <= 0 {
		return nil, size, nil, errors.New("model file is empty")
	}
	if size > int64(int(^uint(0)>>1)) {
		return nil, size, nil, errors.New("model file too large to map")
	}
	if useMmap {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			return data, size, func() { _ = unix.Munmap(data) }, nil
		}
		// fall through to a plain read when the filesystem refuses mmap
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, size, nil, err
	}
	return data, size, func() {}, nil
}
