/*
Package diffengine implements the single-pass scan over the base file that
looks for runs reusable from the other file, described by a blockindex.

The scan itself is adapted from the reference comparer package's
findMatchingBlocks_int: a sliding window over a stream, a weak hash rolled
byte by byte until a candidate is found, a strong hash computed only on a
weak hit, and a block-sized jump on acceptance. The reference version
matched a comparison stream against a remote file's block descriptors and
reported matches to a channel for an independent merger goroutine; this
version matches the base file against the other file's own descriptors,
tracks which other-blocks have already been satisfied (so a base file
with repeated content doesn't double-claim a block), and returns the
completed match set synchronously, since the spec calls for a single
synchronous pass rather than a producer/consumer pipeline.
*/
package diffengine

import (
	"bytes"
	"io"

	"github.com/patchy-sync/patchy/blockindex"
	"github.com/patchy-sync/patchy/circularbuffer"
	"github.com/patchy-sync/patchy/internal/coverage"
	"github.com/patchy-sync/patchy/plan"
	"github.com/patchy-sync/patchy/rollsum"
	"github.com/patchy-sync/patchy/strongsum"
)

const (
	readNextByte = iota
	readNextBlock
)

// Match records that other-block blockIndex was found at baseOffset in
// the base file.
type Match struct {
	BlockIndex int
	BaseOffset int64
}

// Scan walks base once looking for runs matching a block described by
// idx. It returns the accepted matches, each for a distinct other-block,
// in the order they were found (which is ascending base offset, not
// necessarily ascending block index).
func Scan(base io.Reader, blockSize int, idx *blockindex.Index) ([]Match, error) {
	var matches []Match

	if idx.BlockCount() == 0 || blockSize <= 0 {
		return matches, nil
	}

	L := blockSize
	window := make([]byte, L)
	covered := coverage.New()

	n, err := io.ReadFull(base, window)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// base is shorter than one full block: the whole of base is a
		// single short window, still eligible to match a same-length
		// other block (see matchShortTail).
		return matchShortTail(matches, window[:n], 0, idx, covered)
	}
	if err != nil {
		return nil, err
	}

	weak := rollsum.New()
	weak.SetBlock(window)

	blockMemory := circularbuffer.NewCircularBuffer(int64(L))
	blockMemory.Fill(window)

	strong := strongsum.New()
	singleByte := make([]byte, 1)

	p := int64(0)
	next := readNextByte

	for {
		if candidates := idx.Lookup(weak.Sum32()); candidates != nil {
			block := blockMemory.Contents()

			strong.Reset()
			strong.Write(block)
			strongValue := strong.Sum(nil)

			if d, ok := acceptableMatch(candidates, strongValue, L, covered); ok {
				matches = append(matches, Match{BlockIndex: d.Index, BaseOffset: p})
				covered.MarkCovered(d.Index)
				next = readNextBlock
			}
		}

		switch next {
		case readNextByte:
			_, rerr := base.Read(singleByte)
			if rerr != nil {
				if rerr == io.EOF {
					return matches, nil
				}
				return nil, rerr
			}

			evicted := blockMemory.EvictByte(singleByte[0])
			weak.Roll(evicted, singleByte[0])
			p++

		case readNextBlock:
			bn, rerr := io.ReadFull(base, window)
			if rerr == nil {
				weak.SetBlock(window)
				blockMemory.EvictBlock(window)
				p += int64(L)
				next = readNextByte
				continue
			}
			if rerr == io.ErrUnexpectedEOF {
				// fewer than L bytes remain, starting right after the
				// window just consumed: try them as one final short
				// window before giving up.
				return matchShortTail(matches, window[:bn], p+int64(L), idx, covered)
			}
			if bn == 0 && rerr == io.EOF {
				return matches, nil
			}
			return nil, rerr
		}
	}
}

// matchShortTail attempts a single match of a base window shorter than a
// full block against a same-length other block, the way the reference
// scanner always sizes its last window to whatever remains of base
// (`min(remaining_len, block_size)`) rather than only ever trying
// full-size windows. It resolves spec §4.4/§9's documented open question
// in favor of "always attempt the match": tail is the last bytes of base,
// so there is nothing further to scan regardless of the outcome.
func matchShortTail(
	matches []Match,
	tail []byte,
	baseOffset int64,
	idx *blockindex.Index,
	covered *coverage.Set,
) ([]Match, error) {
	if len(tail) == 0 {
		return matches, nil
	}

	weak := rollsum.New()
	weak.AddBytes(tail)

	candidates := idx.Lookup(weak.Sum32())
	if candidates == nil {
		return matches, nil
	}

	strongValue := strongsum.Sum(tail)
	if d, ok := acceptableMatch(candidates, strongValue[:], len(tail), covered); ok {
		matches = append(matches, Match{BlockIndex: d.Index, BaseOffset: baseOffset})
	}

	return matches, nil
}

// acceptableMatch picks the first candidate (ascending block index, since
// idx.Lookup returns candidates in that order) whose recorded length
// matches the window, whose strong hash matches the window's content, and
// whose destination block is not already covered.
func acceptableMatch(
	candidates []blockindex.Descriptor,
	windowStrong []byte,
	windowLen int,
	covered *coverage.Set,
) (blockindex.Descriptor, bool) {
	for _, d := range candidates {
		if d.Length != windowLen {
			continue
		}
		if covered.IsCovered(d.Index) {
			continue
		}
		if bytes.Equal(d.Strong[:], windowStrong) {
			return d, true
		}
	}

	return blockindex.Descriptor{}, false
}

// BuildRawPlan performs the second pass required by the spec: it walks
// the other file's blocks in ascending destination order and emits one
// command per block, CopyBase for a matched block or CopyLiteral for an
// unmatched one, appending unmatched bytes to the literal pool as it
// goes. The result is unmerged (adjacent commands sharing a variant and
// abutting ranges are not yet collapsed); callers pass it through
// plan.Canonicalize before it is final.
func BuildRawPlan(matches []Match, idx *blockindex.Index, other []byte) plan.Plan {
	baseOffsetOf := make(map[int]int64, len(matches))
	for _, m := range matches {
		baseOffsetOf[m.BlockIndex] = m.BaseOffset
	}

	raw := plan.Plan{}
	literalOffset := uint64(0)

	for _, d := range idx.Descriptors {
		section := other[d.Offset : d.Offset+int64(d.Length)]

		if baseOffset, ok := baseOffsetOf[d.Index]; ok {
			raw.Commands = append(raw.Commands, plan.Command{
				Tag:       plan.CopyBase,
				SrcOffset: uint64(baseOffset),
				DstOffset: uint64(d.Offset),
				Length:    uint32(d.Length),
			})
			continue
		}

		raw.Commands = append(raw.Commands, plan.Command{
			Tag:       plan.CopyLiteral,
			SrcOffset: literalOffset,
			DstOffset: uint64(d.Offset),
			Length:    uint32(d.Length),
		})
		raw.LiteralPool = append(raw.LiteralPool, section...)
		literalOffset += uint64(d.Length)
	}

	return raw
}
