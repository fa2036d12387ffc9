/*
Package strongsum provides the collision-resistant identity hash used for
block identity and whole-file integrity: blake3, truncated to 16 bytes.
The same truncation is used in both roles, as required of a strong hash
that stands in for exact byte comparison.
*/
package strongsum

import (
	"github.com/zeebo/blake3"
)

// Size is the number of bytes a strong hash value occupies.
const Size = 16

// Sum returns the truncated blake3 digest of data.
func Sum(data []byte) (out [Size]byte) {
	full := blake3.Sum256(data)
	copy(out[:], full[:Size])
	return out
}

// New returns a streaming strong hash, for callers (the scanner's window
// check, the whole-file checksum passes) that feed data incrementally
// rather than all at once.
func New() *Hasher {
	return &Hasher{inner: blake3.New()}
}

// Hasher is a hash.Hash-shaped streaming strong hash: Write accumulates
// bytes, Sum returns the truncated digest without resetting state.
type Hasher struct {
	inner *blake3.Hasher
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.inner.Write(p)
}

// Sum appends the truncated digest to b and returns the resulting slice.
func (h *Hasher) Sum(b []byte) []byte {
	full := h.inner.Sum(nil)
	return append(b, full[:Size]...)
}

func (h *Hasher) Reset() {
	h.inner.Reset()
}

func (h *Hasher) Size() int {
	return Size
}

func (h *Hasher) BlockSize() int {
	return h.inner.BlockSize()
}
