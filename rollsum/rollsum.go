/*
Package rollsum implements the weak, rollable checksum used by the diff
engine's base scan. It is the classic rsync rolling checksum: two 16-bit
running sums that combine into a 32-bit value, each byte folded in after
being biased by a fixed offset so that an all-zero window doesn't collapse
to the same sum as an empty one.

It decouples the rolling algorithm from the storage of the window itself -
the caller (diffengine) owns the window buffer, this package only owns the
running sums and the count needed to undo a byte's contribution to b.
*/
package rollsum

import (
	"encoding/binary"
)

// charOffset biases every byte before it is folded into the sums.
const charOffset = 31

// New returns a rolling checksum over an initially empty window.
func New() *Weak {
	return &Weak{}
}

// Weak is the rolling checksum state. It holds no copy of the window
// itself - callers that need the window bytes (e.g. to feed the strong
// hash on a weak hit) must keep their own buffer.
type Weak struct {
	a, b  uint16
	count uint16
}

// AddByte folds a single byte into the running sums, growing the window
// by one byte.
func (r *Weak) AddByte(b byte) {
	r.a += uint16(b) + charOffset
	r.b += r.a
	r.count++
}

// AddBytes folds a run of bytes in, in order.
func (r *Weak) AddBytes(bs []byte) {
	for _, b := range bs {
		r.AddByte(b)
	}
}

// RemoveByte undoes the contribution of the oldest byte in the window.
// The byte removed must be the one least recently added that hasn't
// already been removed.
func (r *Weak) RemoveByte(b byte) {
	x := uint16(b) + charOffset
	r.a -= x
	r.b -= r.count * x
	r.count--
}

// Roll slides the window by exactly one byte: oldByte leaves the start of
// the window, newByte joins the end. This is the O(1) update a rolling
// hash must support.
func (r *Weak) Roll(oldByte, newByte byte) {
	r.RemoveByte(oldByte)
	r.AddByte(newByte)
}

// SetBlock resets the hash and loads a whole block in one step - used
// whenever the scanner jumps ahead after accepting a match, rather than
// rolling byte by byte through bytes it has already decided to skip.
func (r *Weak) SetBlock(block []byte) {
	r.Reset()
	r.AddBytes(block)
}

// Reset returns the hash to its initial, empty-window state.
func (r *Weak) Reset() {
	r.a, r.b, r.count = 0, 0, 0
}

// Size is the number of bytes a checksum value occupies.
func (r *Weak) Size() int {
	return 4
}

// GetSum writes the current checksum value into b, which must have
// length >= Size(). It does not alter the hash state.
func (r *Weak) GetSum(b []byte) {
	binary.LittleEndian.PutUint32(b, r.Sum32())
}

// Sum32 returns the current checksum as a uint32: a in the low 16 bits,
// b in the high 16 bits, matching the packing GetSum writes out.
func (r *Weak) Sum32() uint32 {
	return uint32(r.a) | uint32(r.b)<<16
}
