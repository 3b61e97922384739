package wfc

import (
	"errors"
	"testing"
)

func newTestBoxMap(t *testing.T, c *Catalog, size Position) *BoxMap {
	t.Helper()
	return NewBoxMap(c, Position{}, size, DefaultHistoryCapacity)
}

func TestSlotCollapseRejectsNonCandidate(t *testing.T) {
	c := testCatalog(t, 3)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})
	s.Modules.Remove(2)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic collapsing to a module that is not a candidate")
		}
	}()
	_ = s.Collapse(2)
}

func TestSlotCollapseRejectsAlreadyCollapsed(t *testing.T) {
	c := testCatalog(t, 2)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})
	if err := s.Collapse(0); err != nil {
		t.Fatalf("first collapse: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic re-collapsing an already-collapsed slot")
		}
	}()
	_ = s.Collapse(1)
}

func TestSlotCollapseRandomOnEmptySetFails(t *testing.T) {
	c := testCatalog(t, 2)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})
	s.Modules.Remove(0)
	s.Modules.Remove(1)

	err := s.CollapseRandom(&fakeRand{vals: []float64{0}})
	var cf *ErrCollapseFailed
	if !errors.As(err, &cf) {
		t.Fatalf("CollapseRandom() err = %v, want *ErrCollapseFailed", err)
	}
}

func TestSlotForgetReleasesState(t *testing.T) {
	c := testCatalog(t, 4)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})
	s.forget()

	if !s.Forgotten {
		t.Fatal("expected Forgotten to be true")
	}
	if !s.Modules.IsEmpty() {
		t.Fatal("expected Modules to be released to empty")
	}
	for d := range s.Health {
		if s.Health[d] != nil {
			t.Fatalf("expected Health[%d] to be released to nil", d)
		}
	}
}

func TestEnforceConnectorKeepsOnlyMatchingFace(t *testing.T) {
	c := alternatingCatalog(t)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})

	if err := s.EnforceConnector(DirPosX, "B"); err != nil {
		t.Fatalf("EnforceConnector: %v", err)
	}
	if s.Modules.Count() != 1 || !s.Modules.Contains(1) {
		t.Fatalf("expected only module 1 (face B) to remain, got %v", s.Modules.Slice())
	}
}

func TestExcludeConnectorDropsMatchingFace(t *testing.T) {
	c := alternatingCatalog(t)
	m := newTestBoxMap(t, c, Position{X: 1, Y: 1, Z: 1})
	s := m.GetSlot(Position{})

	if err := s.ExcludeConnector(DirPosX, "A"); err != nil {
		t.Fatalf("ExcludeConnector: %v", err)
	}
	if s.Modules.Count() != 1 || !s.Modules.Contains(1) {
		t.Fatalf("expected module 0 (face A) to be excluded, got %v", s.Modules.Slice())
	}
}

func TestWalkwayEnforceWalkwayBothAxisDirections(t *testing.T) {
	defs := []ModuleDef{
		{Name: "open", Probability: 1, PossibleNeighbors: [NumDirections][]int{
			DirPosX: {0, 1}, DirNegX: {0, 1}, DirPosY: {0, 1}, DirNegY: {0, 1}, DirPosZ: {0, 1}, DirNegZ: {0, 1},
		}, Faces: [NumDirections]string{DirPosX: WalkwayConnector, DirNegX: WalkwayConnector}},
		{Name: "wall", Probability: 1, PossibleNeighbors: [NumDirections][]int{
			DirPosX: {0, 1}, DirNegX: {0, 1}, DirPosY: {0, 1}, DirNegY: {0, 1}, DirPosZ: {0, 1}, DirNegZ: {0, 1},
		}},
	}
	c, err := NewCatalog(defs)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	m := newTestBoxMap(t, c, Position{X: 2, Y: 1, Z: 1})
	a, b := Position{X: 0}, Position{X: 1}

	if err := EnforceWalkwayBoth(m, a, b); err != nil {
		t.Fatalf("EnforceWalkwayBoth: %v", err)
	}
	sa, sb := m.GetSlot(a), m.GetSlot(b)
	if sa.Modules.Count() != 1 || !sa.Modules.Contains(0) {
		t.Fatalf("slot a candidates = %v, want {0} (walkway only)", sa.Modules.Slice())
	}
	if sb.Modules.Count() != 1 || !sb.Modules.Contains(0) {
		t.Fatalf("slot b candidates = %v, want {0} (walkway only)", sb.Modules.Slice())
	}
}
