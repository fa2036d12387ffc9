/*
Package blockindex builds and queries the description of the "other" file
in terms of fixed-size blocks: a weak rolling hash and a strong hash per
block, and a map from weak hash to the (small) set of blocks sharing it.

It plays the role the reference implementation split across three
packages - chunks (the weak/strong pair), index (the weak-hash lookup
map) and filechecksum (the streaming block-hash generator) - collapsed
into one, since the spec ties a block's identity, its position and its
lookup key together as a single descriptor rather than three parallel
structures.
*/
package blockindex

import (
	"io"

	"github.com/patchy-sync/patchy/rollsum"
	"github.com/patchy-sync/patchy/strongsum"
)

// Descriptor identifies one block of the other file.
type Descriptor struct {
	Index  int
	Offset int64
	Length int
	Weak   uint32
	Strong [strongsum.Size]byte
}

// Index maps a weak hash to the other-file blocks that share it, in the
// order those blocks were discovered (ascending block index).
type Index struct {
	BlockSize   int
	Descriptors []Descriptor
	buckets     map[uint32][]Descriptor
}

// Build reads other in BlockSize chunks, computing the weak and strong
// hash of each, and returns both the ordered descriptor list and the
// weak-hash lookup index built from it.
func Build(other io.Reader, blockSize int) (*Index, error) {
	idx := &Index{
		BlockSize: blockSize,
		buckets:   make(map[uint32][]Descriptor),
	}

	weak := rollsum.New()
	buf := make([]byte, blockSize)
	offset := int64(0)

	for i := 0; ; i++ {
		n, err := io.ReadFull(other, buf)
		if n == 0 {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		section := buf[:n]
		weak.SetBlock(section)

		d := Descriptor{
			Index:  i,
			Offset: offset,
			Length: n,
			Weak:   weak.Sum32(),
			Strong: strongsum.Sum(section),
		}

		idx.Descriptors = append(idx.Descriptors, d)
		idx.buckets[d.Weak] = append(idx.buckets[d.Weak], d)

		offset += int64(n)

		if err == io.ErrUnexpectedEOF || n < blockSize {
			break
		}
	}

	return idx, nil
}

// BlockCount is the number of blocks other was divided into.
func (idx *Index) BlockCount() int {
	return len(idx.Descriptors)
}

// Lookup returns the candidate blocks sharing a weak hash, in ascending
// block-index order, or nil if none share it.
func (idx *Index) Lookup(weak uint32) []Descriptor {
	return idx.buckets[weak]
}

// WeakCount is the number of distinct weak hash buckets in the index.
func (idx *Index) WeakCount() int {
	return len(idx.buckets)
}
