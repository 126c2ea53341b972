package entropy

import "testing"

func TestSeededDeterministic(t *testing.T) {
	a, b := NewSeeded(99), NewSeeded(99)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d diverged", i)
		}
	}
	if a.Seed() != 99 {
		t.Fatalf("seed = %d, want 99", a.Seed())
	}
}

func TestSeededZeroDrawsFreshSeed(t *testing.T) {
	s := NewSeeded(0)
	if s.Seed() == 0 {
		t.Fatal("expected non-zero seed")
	}
}

func TestChanceClamps(t *testing.T) {
	src := NewScript(0.0, 0.999999)
	if Chance(src, 0) {
		t.Fatal("p=0 must never succeed")
	}
	if Chance(src, -1) {
		t.Fatal("negative p must never succeed")
	}
	if !Chance(src, 1) || !Chance(src, 5) {
		t.Fatal("p>=1 must always succeed")
	}
	if src.Draws() != 0 {
		t.Fatalf("degenerate probabilities should not consume draws, consumed %d", src.Draws())
	}
	if !Chance(src, 0.5) {
		t.Fatal("draw 0.0 < 0.5 should succeed")
	}
	if Chance(src, 0.5) {
		t.Fatal("draw 0.999999 < 0.5 should fail")
	}
}

func TestRanges(t *testing.T) {
	src := NewScript(0, 0.5)
	if got := Range(src, 11, 19); got != 11 {
		t.Fatalf("Range low = %v", got)
	}
	if got := Range(src, 11, 19); got != 15 {
		t.Fatalf("Range mid = %v", got)
	}

	src.Ints = []int{0, 2, 7}
	if got := IntRange(src, 2, 4); got != 2 {
		t.Fatalf("IntRange = %d, want 2", got)
	}
	if got := IntRange(src, 2, 4); got != 4 {
		t.Fatalf("IntRange = %d, want 4", got)
	}
	if got := IntRange(src, 5, 5); got != 5 {
		t.Fatalf("IntRange degenerate = %d", got)
	}
}
