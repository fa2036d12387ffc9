package strongsum

import "testing"

func TestSumIsDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")

	if Sum(data) != Sum(data) {
		t.Errorf("Sum is not deterministic for identical input")
	}
}

func TestSumDiffersForDifferentInput(t *testing.T) {
	a := Sum([]byte("alpha"))
	b := Sum([]byte("beta"))

	if a == b {
		t.Errorf("expected different sums for different input")
	}
}

func TestSumLengthIsSize(t *testing.T) {
	s := Sum([]byte("anything"))

	if len(s) != Size {
		t.Errorf("expected %d bytes, got %d", Size, len(s))
	}
}

func TestStreamingHasherMatchesSum(t *testing.T) {
	data := []byte("streamed in two pieces")

	h := New()
	h.Write(data[:10])
	h.Write(data[10:])
	streamed := h.Sum(nil)

	whole := Sum(data)

	if string(streamed) != string(whole[:]) {
		t.Errorf("streaming hasher diverged from Sum: %x vs %x", streamed, whole)
	}
}

func TestHasherResetClearsState(t *testing.T) {
	h := New()
	h.Write([]byte("first"))
	h.Reset()
	h.Write([]byte("second"))

	reset := h.Sum(nil)
	fresh := Sum([]byte("second"))

	if string(reset) != string(fresh[:]) {
		t.Errorf("Reset did not clear prior state")
	}
}
