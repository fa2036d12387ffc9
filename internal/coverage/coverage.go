/*
Package coverage tracks which destination blocks of the other file have
already been satisfied by an accepted base match, so the scanner can
reject a second match for the same block.

Matches are always block-aligned on the destination side (the scanner
only ever accepts a match against one whole other-block at a time), so
coverage is naturally a set of block indices rather than a general byte
interval set. It is kept in a github.com/petar/GoLLRB ordered tree rather
than a bitmap: block-count-sized bitmaps front-load an allocation
proportional to the whole other file even when only a handful of blocks
end up matched, while the tree grows with the number of accepted matches.
*/
package coverage

import (
	"github.com/petar/GoLLRB/llrb"
)

type blockItem int

func (b blockItem) Less(than llrb.Item) bool {
	return b < than.(blockItem)
}

// Set records which other-file block indices have been covered.
type Set struct {
	tree *llrb.LLRB
}

// New returns an empty coverage set.
func New() *Set {
	return &Set{tree: llrb.New()}
}

// IsCovered reports whether blockIndex has already been matched.
func (s *Set) IsCovered(blockIndex int) bool {
	return s.tree.Has(blockItem(blockIndex))
}

// MarkCovered records blockIndex as matched.
func (s *Set) MarkCovered(blockIndex int) {
	s.tree.ReplaceOrInsert(blockItem(blockIndex))
}

// Len is the number of distinct blocks covered so far.
func (s *Set) Len() int {
	return s.tree.Len()
}
