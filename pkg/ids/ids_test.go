package ids

import "testing"

func TestNewLength(t *testing.T) {
	for _, n := range []int{1, 8, 16, 32} {
		id := New(n)
		if len(id) != 2*n {
			t.Fatalf("New(%d): expected %d hex chars, got %d (%q)", n, 2*n, len(id), id)
		}
	}
}

func TestNewDefaultsOnNonPositive(t *testing.T) {
	if got := len(New(0)); got != 2*DefaultBytes {
		t.Fatalf("New(0): expected default length %d, got %d", 2*DefaultBytes, got)
	}
	if got := len(New(-3)); got != 2*DefaultBytes {
		t.Fatalf("New(-3): expected default length %d, got %d", 2*DefaultBytes, got)
	}
}

func TestNewUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := New(8)
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
