package ingest

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/CVDpl/go-acctidx/pkg/acctidx/utils"
)

// LoadFile maps path read-only and loads its records into ins.
func LoadFile(path string, ins Inserter) (Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	if st.IsDir() {
		return Result{}, fmt.Errorf("open %s: is a directory", path)
	}
	if st.Size() == 0 {
		return Result{Digest: utils.ComputeBLAKE3(nil)}, nil
	}

	data, err := mmapFile(path, st.Size())
	if err != nil {
		return Result{}, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer unix.Munmap(data)

	res, err := Load(bytes.NewReader(data), ins)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func mmapFile(path string, size int64) ([]byte, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	// records are consumed front to back exactly once
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return data, nil
}
