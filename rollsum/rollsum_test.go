package rollsum

import "testing"

func TestSameBytesGiveSameSum(t *testing.T) {
	r1 := New()
	r1.AddBytes([]byte{1, 2, 3, 4})

	r2 := New()
	r2.AddBytes([]byte{1, 2, 3, 4})

	sum1 := make([]byte, 4)
	sum2 := make([]byte, 4)
	r1.GetSum(sum1)
	r2.GetSum(sum2)

	if string(sum1) != string(sum2) {
		t.Errorf("expected equal sums, got %v vs %v", sum1, sum2)
	}
}

func TestDifferentBytesGiveDifferentSum(t *testing.T) {
	r1 := New()
	r1.AddBytes([]byte{1, 2, 3, 4})

	r2 := New()
	r2.AddBytes([]byte{7, 6, 5, 1})

	if r1.Sum32() == r2.Sum32() {
		t.Errorf("expected different sums for different input")
	}
}

func TestAllZeroWindowIsNotZero(t *testing.T) {
	r := New()
	r.AddBytes([]byte{0, 0, 0, 0})

	if r.Sum32() == 0 {
		t.Errorf("charOffset should keep an all-zero window from summing to zero")
	}
}

func TestRollMatchesRecompute(t *testing.T) {
	window := []byte("ABCDEFGH")
	const L = 4

	rolled := New()
	rolled.AddBytes(window[:L])

	for i := 0; i+L < len(window); i++ {
		rolled.Roll(window[i], window[i+L])

		recomputed := New()
		recomputed.AddBytes(window[i+1 : i+1+L])

		if rolled.Sum32() != recomputed.Sum32() {
			t.Errorf(
				"rolled sum %d diverged from recomputed sum %d at window %q",
				rolled.Sum32(), recomputed.Sum32(), window[i+1:i+1+L],
			)
		}
	}
}

func TestSetBlockResetsPriorState(t *testing.T) {
	r := New()
	r.AddBytes([]byte{9, 9, 9, 9})
	r.SetBlock([]byte{1, 2, 3, 4})

	expected := New()
	expected.AddBytes([]byte{1, 2, 3, 4})

	if r.Sum32() != expected.Sum32() {
		t.Errorf("SetBlock did not fully reset prior state")
	}
}

func TestResetThenRebuildMatchesFresh(t *testing.T) {
	r := New()
	r.AddBytes([]byte{1, 2, 3, 4})
	r.Reset()
	r.AddBytes([]byte{5, 6, 7, 8})

	fresh := New()
	fresh.AddBytes([]byte{5, 6, 7, 8})

	if r.Sum32() != fresh.Sum32() {
		t.Errorf("reset did not clear state: %v vs %v", r.Sum32(), fresh.Sum32())
	}
}

func TestGetSumDoesNotChangeState(t *testing.T) {
	r := New()
	r.AddBytes([]byte{1, 2, 3})

	sum1 := make([]byte, 4)
	sum2 := make([]byte, 4)
	r.GetSum(sum1)
	r.GetSum(sum2)

	if string(sum1) != string(sum2) {
		t.Errorf("GetSum mutated state between calls: %v vs %v", sum1, sum2)
	}
}

func TestSizeMatchesSumLength(t *testing.T) {
	r := New()
	sum := make([]byte, r.Size())
	r.GetSum(sum)

	if len(sum) != r.Size() {
		t.Errorf("unexpected length: %v vs expected %v", len(sum), r.Size())
	}
}
