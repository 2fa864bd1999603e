//go:build unix

package tdx

import (
	"github.com/go-git/go-billy/v5"
	"golang.org/x/sys/unix"
)

type fder interface {
	Fd() uintptr
}

// mapFile maps f read-only. It returns nil without error when f has no
// descriptor or is empty, leaving the caller on the ReadAt path.
func mapFile(f billy.File, size int64) ([]byte, error) {
	fd, ok := f.(fder)
	if !ok || size == 0 {
		return nil, nil
	}

	return unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
