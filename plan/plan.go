/*
Package plan holds the command list that reconstructs the other file from
the base file plus the literal pool, and the canonicalizer that merges
adjacent commands without changing what they mean.

A Plan's Commands, read in order, tile [0, len(other)) exactly: each one
names a contiguous run of destination bytes and where to copy them from.
This mirrors the reference implementation's BlockSpan merging in
comparer/merger.go, generalized from matched block spans (which only ever
describe base source data) to commands that may also point into an
in-patch literal pool.
*/
package plan

// Tag distinguishes where a Command's bytes come from.
type Tag uint8

const (
	// CopyBase copies from the base file.
	CopyBase Tag = 0
	// CopyLiteral copies from the patch's literal pool.
	CopyLiteral Tag = 1
)

// Command identifies a contiguous run of destination bytes and its
// source. SrcOffset is a base-file offset when Tag is CopyBase, or a
// literal-pool offset when Tag is CopyLiteral.
type Command struct {
	Tag       Tag
	SrcOffset uint64
	DstOffset uint64
	Length    uint32
}

// Plan is the full reconstruction recipe: commands in ascending
// destination order, plus the literal bytes they reference.
type Plan struct {
	Commands    []Command
	LiteralPool []byte
}

// Canonicalize merges adjacent commands that are of the same variant,
// whose destination ranges abut, and whose source ranges abut in the same
// direction. It does not rearrange or touch the literal pool - merging
// only collapses descriptors that already point at contiguous bytes.
//
// Canonicalizing an already-canonical plan returns an equal plan: no pair
// of adjacent commands it emits can ever satisfy the merge condition
// again, since abutting them would have already merged them.
func Canonicalize(raw Plan) Plan {
	out := Plan{LiteralPool: raw.LiteralPool}

	for _, cmd := range raw.Commands {
		if n := len(out.Commands); n > 0 {
			prev := &out.Commands[n-1]
			if mergeable(*prev, cmd) {
				prev.Length += cmd.Length
				continue
			}
		}

		out.Commands = append(out.Commands, cmd)
	}

	return out
}

func mergeable(a, b Command) bool {
	if a.Tag != b.Tag {
		return false
	}

	if uint64(a.DstOffset)+uint64(a.Length) != b.DstOffset {
		return false
	}

	if a.SrcOffset+uint64(a.Length) != b.SrcOffset {
		return false
	}

	// Guard against overflowing the u32 length field on merge.
	const maxUint32 = ^uint32(0)
	if uint64(a.Length)+uint64(b.Length) > uint64(maxUint32) {
		return false
	}

	return true
}
