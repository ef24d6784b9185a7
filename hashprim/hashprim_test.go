package hashprim

import "testing"

func TestHash64Deterministic(t *testing.T) {
	a := Hash64([]byte("hello world"))
	b := Hash64([]byte("hello world"))
	if a != b {
		t.Fatalf("Hash64 not deterministic: %d != %d", a, b)
	}
	if a == Hash64([]byte("hello world!")) {
		t.Fatalf("Hash64 collided on trivially different inputs")
	}
}

func TestHash128Lanes(t *testing.T) {
	h := Hash128([]byte("some content"))
	if h[0] == h[1] {
		t.Fatalf("Hash128 lanes should not be equal for generic input: %v", h)
	}
	h2 := Hash128([]byte("some content"))
	if h != h2 {
		t.Fatalf("Hash128 not deterministic")
	}
}

func TestHash256Deterministic(t *testing.T) {
	a := Hash256([]byte("blob contents"))
	b := Hash256([]byte("blob contents"))
	if a != b {
		t.Fatalf("Hash256 not deterministic")
	}
}

func TestMinHashSketchLength(t *testing.T) {
	tokens := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	sk := MinHashSketch(tokens, 32)
	if len(sk) != 32 {
		t.Fatalf("expected sketch length 32, got %d", len(sk))
	}
}

func TestMinHashSketchSimilarSetsAgreeMoreThanDisjoint(t *testing.T) {
	f := 128
	a := [][]byte{[]byte("apple"), []byte("banana"), []byte("cherry"), []byte("date")}
	b := [][]byte{[]byte("apple"), []byte("banana"), []byte("cherry"), []byte("eggplant")}
	c := [][]byte{[]byte("zzz1"), []byte("zzz2"), []byte("zzz3"), []byte("zzz4")}

	sa := MinHashSketch(a, f)
	sb := MinHashSketch(b, f)
	sc := MinHashSketch(c, f)

	agree := func(x, y []uint32) int {
		n := 0
		for i := range x {
			if x[i] == y[i] {
				n++
			}
		}
		return n
	}

	if agree(sa, sb) <= agree(sa, sc) {
		t.Fatalf("expected near-duplicate sets to agree more than disjoint sets: ab=%d ac=%d", agree(sa, sb), agree(sa, sc))
	}
}

func TestMinHashSketchDeterministic(t *testing.T) {
	tokens := [][]byte{[]byte("x"), []byte("y")}
	s1 := MinHashSketch(tokens, 16)
	s2 := MinHashSketch(tokens, 16)
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("MinHashSketch not deterministic at index %d", i)
		}
	}
}
