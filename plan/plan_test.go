package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeMergesAbuttingCopyBase(t *testing.T) {
	raw := Plan{
		Commands: []Command{
			{Tag: CopyBase, SrcOffset: 0, DstOffset: 0, Length: 16},
			{Tag: CopyBase, SrcOffset: 16, DstOffset: 16, Length: 16},
		},
	}

	canon := Canonicalize(raw)

	if assert.Len(t, canon.Commands, 1) {
		assert.Equal(t, Command{Tag: CopyBase, SrcOffset: 0, DstOffset: 0, Length: 32}, canon.Commands[0])
	}
}

func TestCanonicalizeDoesNotMergeNonAbuttingSource(t *testing.T) {
	raw := Plan{
		Commands: []Command{
			{Tag: CopyBase, SrcOffset: 16, DstOffset: 0, Length: 16},
			{Tag: CopyBase, SrcOffset: 0, DstOffset: 16, Length: 16},
		},
	}

	canon := Canonicalize(raw)

	assert.Len(t, canon.Commands, 2, "non-abutting source ranges must stay separate")
}

func TestCanonicalizeDoesNotMergeDifferentVariants(t *testing.T) {
	raw := Plan{
		Commands: []Command{
			{Tag: CopyBase, SrcOffset: 0, DstOffset: 0, Length: 16},
			{Tag: CopyLiteral, SrcOffset: 0, DstOffset: 16, Length: 3},
		},
	}

	canon := Canonicalize(raw)

	assert.Len(t, canon.Commands, 2)
}

func TestCanonicalizeGuardsAgainstLengthOverflow(t *testing.T) {
	const maxUint32 = ^uint32(0)

	raw := Plan{
		Commands: []Command{
			{Tag: CopyLiteral, SrcOffset: 0, DstOffset: 0, Length: maxUint32 - 1},
			{Tag: CopyLiteral, SrcOffset: uint64(maxUint32 - 1), DstOffset: uint64(maxUint32 - 1), Length: 2},
		},
	}

	canon := Canonicalize(raw)

	assert.Len(t, canon.Commands, 2, "merging would overflow the u32 length field")
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	raw := Plan{
		Commands: []Command{
			{Tag: CopyBase, SrcOffset: 0, DstOffset: 0, Length: 16},
			{Tag: CopyBase, SrcOffset: 16, DstOffset: 16, Length: 16},
			{Tag: CopyLiteral, SrcOffset: 0, DstOffset: 32, Length: 3},
		},
	}

	once := Canonicalize(raw)
	twice := Canonicalize(once)

	assert.Equal(t, once.Commands, twice.Commands)
}

func TestCanonicalizeOnEmptyPlan(t *testing.T) {
	canon := Canonicalize(Plan{})

	assert.Empty(t, canon.Commands)
}
