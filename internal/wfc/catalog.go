package wfc

import "math"

// ModuleDef is the raw, host-supplied description of one module: a
// probability weight and, per direction, the set of module indices
// allowed as a same-axis neighbor. This is the "precomputed input"
// the spec's catalog-authoring collaborator is expected to produce
// (module-catalog authoring itself is out of core scope).
type ModuleDef struct {
	Name              string
	Probability       float64
	PossibleNeighbors [NumDirections][]int

	// Faces optionally labels each direction's connector socket, used
	// by EnforceConnector/ExcludeConnector and the walkway utility
	// (§6). A module with no face labels never matches any connector.
	Faces [NumDirections]string
}

// Module is one immutable catalog entry as consumed by the core.
type Module struct {
	Name              string
	Probability       float64
	PLogP             float64 // precomputed p_i * log(p_i)
	PossibleNeighbors [NumDirections]ModuleSet
	Faces             [NumDirections]string
}

// Catalog is the immutable, load-once table of modules and their
// adjacency rules, shared by reference across every Slot. Grounded on
// the teacher's precomputed-at-init tables (Zobrist keys, magic
// bitboard tables in internal/board) — expensive derived data computed
// once at construction, never touched again.
type Catalog struct {
	Modules []Module

	// InitHealth[d][i] is the per-direction base support count every
	// brand new full Slot's health[d][i] starts from (§4.2/§4.3).
	InitHealth [NumDirections][]int16
}

// NewCatalog builds an immutable Catalog from raw module definitions,
// computing PLogP and InitHealth and rejecting unreachable modules.
//
// Resolution of spec §4.2's formula vs. §3's Slot.health invariant
// (see DESIGN.md "Open Question decisions" for the full derivation):
// this implementation sets InitHealth[d][i] = |PossibleNeighbors[i][d]|
// (the size of module i's own direction-d neighbor set), which is the
// value required for a brand-new fully-candidate Slot's health[d][i]
// to equal the invariant in §3 when its neighbor is also fully
// candidate. The literal spec text reads |PN[i][d']|; because d' ranges
// over all six directions exactly as d does, "some direction's count is
// zero" is the same existential condition under either reading, so
// catalog rejection (and E4) behaves identically either way — only the
// runtime Slot.health semantics forces this specific choice.
func NewCatalog(defs []ModuleDef) (*Catalog, error) {
	n := len(defs)
	c := &Catalog{
		Modules: make([]Module, n),
	}
	for d := range c.InitHealth {
		c.InitHealth[d] = make([]int16, n)
	}

	for i, def := range defs {
		c.Modules[i].Name = def.Name
		c.Modules[i].Probability = def.Probability
		c.Modules[i].Faces = def.Faces
		if def.Probability > 0 {
			c.Modules[i].PLogP = def.Probability * math.Log(def.Probability)
		}
	}

	for i, def := range defs {
		for d := Direction(0); d < NumDirections; d++ {
			ms := NewModuleSet(c)
			for _, j := range def.PossibleNeighbors[d] {
				ms.Add(j)
			}
			c.Modules[i].PossibleNeighbors[d] = ms
			c.InitHealth[d][i] = int16(ms.Count())
		}
	}

	for i := range c.Modules {
		for d := Direction(0); d < NumDirections; d++ {
			if c.InitHealth[d][i] == 0 {
				return nil, &ErrCatalogInvalid{Module: i, Direction: d}
			}
		}
	}

	return c, nil
}

// NewFullSlotHealth returns a fresh copy of the base support counts
// every newly-created full Slot starts from.
func (c *Catalog) NewFullSlotHealth() [NumDirections][]int16 {
	var h [NumDirections][]int16
	for d := range h {
		h[d] = make([]int16, len(c.InitHealth[d]))
		copy(h[d], c.InitHealth[d])
	}
	return h
}
