package utils

import (
	"fmt"
	"hash"
	"io"

	blake3 "lukechampine.com/blake3"
)

// ComputeBLAKE3 computes the BLAKE3 hash of the given bytes and returns a hex string.
func ComputeBLAKE3(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

// NewBLAKE3 returns a streaming 256-bit BLAKE3 hasher.
func NewBLAKE3() hash.Hash {
	return blake3.New(32, nil)
}

// ComputeBLAKE3Reader hashes everything read from r and returns a hex string.
func ComputeBLAKE3Reader(r io.Reader) (string, error) {
	h := NewBLAKE3()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
