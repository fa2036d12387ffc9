package blockindex

import (
	"bytes"
	"testing"
)

func TestBuildProducesOneDescriptorPerBlock(t *testing.T) {
	data := bytes.Repeat([]byte("A"), 16*3)
	idx, err := Build(bytes.NewReader(data), 16)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.BlockCount() != 3 {
		t.Errorf("expected 3 blocks, got %d", idx.BlockCount())
	}

	for i, d := range idx.Descriptors {
		if d.Index != i {
			t.Errorf("descriptor %d has Index %d", i, d.Index)
		}
		if d.Offset != int64(i*16) {
			t.Errorf("descriptor %d has Offset %d", i, d.Offset)
		}
		if d.Length != 16 {
			t.Errorf("descriptor %d has Length %d", i, d.Length)
		}
	}
}

func TestBuildHandlesShortFinalBlock(t *testing.T) {
	data := append(bytes.Repeat([]byte("A"), 16), []byte("XYZ")...)
	idx, err := Build(bytes.NewReader(data), 16)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.BlockCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", idx.BlockCount())
	}

	last := idx.Descriptors[1]
	if last.Length != 3 {
		t.Errorf("expected final block length 3, got %d", last.Length)
	}
}

func TestBuildOnEmptyInputProducesNoBlocks(t *testing.T) {
	idx, err := Build(bytes.NewReader(nil), 16)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.BlockCount() != 0 {
		t.Errorf("expected 0 blocks, got %d", idx.BlockCount())
	}
}

func TestLookupFindsBlockByWeakHash(t *testing.T) {
	data := bytes.Repeat([]byte("A"), 16*2)
	idx, err := Build(bytes.NewReader(data), 16)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	weak := idx.Descriptors[0].Weak
	matches := idx.Lookup(weak)

	if len(matches) != 2 {
		t.Fatalf("expected both identical blocks to share a weak hash bucket, got %d", len(matches))
	}

	if matches[0].Index != 0 || matches[1].Index != 1 {
		t.Errorf("expected bucket in ascending block-index order, got %v", matches)
	}
}

func TestLookupMissReturnsNil(t *testing.T) {
	idx, err := Build(bytes.NewReader([]byte("hello world12345")), 16)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if matches := idx.Lookup(0xdeadbeef); matches != nil {
		t.Errorf("expected no match, got %v", matches)
	}
}
