package wfc

import "testing"

func testCatalog(t *testing.T, n int) *Catalog {
	t.Helper()
	defs := make([]ModuleDef, n)
	for i := range defs {
		defs[i].Name = string(rune('A' + i))
		defs[i].Probability = 1
		for d := Direction(0); d < NumDirections; d++ {
			var nbrs []int
			for j := 0; j < n; j++ {
				nbrs = append(nbrs, j)
			}
			defs[i].PossibleNeighbors[d] = nbrs
		}
	}
	c, err := NewCatalog(defs)
	if err != nil {
		t.Fatalf("testCatalog: %v", err)
	}
	return c
}

func TestModuleSetAddRemoveContains(t *testing.T) {
	c := testCatalog(t, 130) // force multiple words
	ms := NewModuleSet(c)
	if !ms.IsEmpty() {
		t.Fatal("new set should be empty")
	}
	ms.Add(0)
	ms.Add(64)
	ms.Add(129)
	for _, i := range []int{0, 64, 129} {
		if !ms.Contains(i) {
			t.Fatalf("expected set to contain %d", i)
		}
	}
	if ms.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", ms.Count())
	}
	ms.Remove(64)
	if ms.Contains(64) {
		t.Fatal("64 should have been removed")
	}
	if ms.Count() != 2 {
		t.Fatalf("Count() after remove = %d, want 2", ms.Count())
	}
}

func TestModuleSetFullAndTailMask(t *testing.T) {
	c := testCatalog(t, 70)
	ms := FullModuleSet(c)
	if !ms.IsFull() {
		t.Fatal("FullModuleSet should be full")
	}
	if ms.Count() != 70 {
		t.Fatalf("Count() = %d, want 70", ms.Count())
	}
	for i := 70; i < 128; i++ {
		if ms.Contains(i) {
			t.Fatalf("tail bit %d should never be set", i)
		}
	}
}

func TestModuleSetUnionIntersectDifference(t *testing.T) {
	c := testCatalog(t, 8)
	a := NewModuleSet(c)
	a.Add(1)
	a.Add(2)
	a.Add(3)
	b := NewModuleSet(c)
	b.Add(2)
	b.Add(3)
	b.Add(4)

	u := a.Clone()
	u.Union(b)
	for _, i := range []int{1, 2, 3, 4} {
		if !u.Contains(i) {
			t.Fatalf("union missing %d", i)
		}
	}

	inter := a.Clone()
	inter.Intersect(b)
	if inter.Count() != 2 || !inter.Contains(2) || !inter.Contains(3) {
		t.Fatalf("intersect wrong: %v", inter.Slice())
	}

	diff := a.Clone()
	removed := diff.Difference(b)
	if diff.Count() != 1 || !diff.Contains(1) {
		t.Fatalf("difference wrong: %v", diff.Slice())
	}
	if removed.Count() != 2 || !removed.Contains(2) || !removed.Contains(3) {
		t.Fatalf("difference's removed set wrong: %v", removed.Slice())
	}
}

func TestModuleSetEntropyEmptyIsInfinite(t *testing.T) {
	c := testCatalog(t, 4)
	ms := NewModuleSet(c)
	if !isPosInf(ms.Entropy()) {
		t.Fatalf("empty set entropy = %v, want +Inf", ms.Entropy())
	}
}

func TestModuleSetEntropySingletonIsZero(t *testing.T) {
	c := testCatalog(t, 4)
	ms := NewModuleSet(c)
	ms.Add(0)
	if e := ms.Entropy(); e < -1e-9 || e > 1e-9 {
		t.Fatalf("singleton entropy = %v, want ~0", e)
	}
}

func TestModuleSetEntropyDecreasesAsCandidatesShrink(t *testing.T) {
	c := testCatalog(t, 4)
	full := FullModuleSet(c)
	smaller := full.Clone()
	smaller.Remove(0)
	if !(smaller.Entropy() < full.Entropy()) {
		t.Fatalf("expected smaller candidate set to have lower entropy: full=%v smaller=%v", full.Entropy(), smaller.Entropy())
	}
}

func isPosInf(f float64) bool { return f > 1e300 }
