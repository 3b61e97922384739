package wfc

// NoModule marks an uncollapsed Slot's Module field.
const NoModule = -1

// randSource is the minimal PRNG surface CollapseRandom needs,
// satisfied by *rand.Rand. Injected rather than a package-level global
// source per §9's PRNG note, while still drawing from the teacher's
// own library choice (math/rand) rather than a third-party PRNG.
type randSource interface {
	Float64() float64
}

// Slot is one lattice cell (§3). It owns its candidate ModuleSet and
// per-direction health arrays exclusively; Map owns the Slot itself.
// The back-reference to Map is weak/indexed (position + interface
// value), never an owning pointer, per §5's ownership rules.
type Slot struct {
	Position Position
	Modules  ModuleSet
	Health   [NumDirections][]int16
	Module   int
	Forgotten bool

	m       Map
	catalog *Catalog
}

func initSlot(s *Slot, m Map, pos Position, c *Catalog) {
	s.Position = pos
	s.Modules = FullModuleSet(c)
	s.Health = c.NewFullSlotHealth()
	s.Module = NoModule
	s.m = m
	s.catalog = c
}

// Collapsed reports whether this slot has a chosen module.
func (s *Slot) Collapsed() bool { return s.Module != NoModule }

// forget releases the slot's heavy state (§4.6). A forgotten slot acts
// as a permanent no-op neighbor in both propagation and undo.
func (s *Slot) forget() {
	s.Forgotten = true
	s.Modules = ModuleSet{}
	for d := range s.Health {
		s.Health[d] = nil
	}
}

// neighbor returns the Slot in direction d, or nil if there is none
// addressable, or it has been forgotten (both are "inert" per §4.3).
func (s *Slot) neighbor(d Direction) *Slot {
	t := s.m.GetSlot(Neighbor(s.Position, d))
	if t == nil || t.Forgotten {
		return nil
	}
	return t
}

// Collapse fixes the slot to module m, pushing a HistoryItem and then
// removing every other candidate (§4.3). Precondition: m is a current
// candidate and the slot is not already collapsed — violating it is a
// programming error (illegalCollapse), not a recoverable CollapseFailed.
func (s *Slot) Collapse(m int) error {
	if s.Collapsed() {
		illegalCollapse("collapse called on an already-collapsed slot")
	}
	if !s.Modules.Contains(m) {
		illegalCollapse("collapse called with a module that is not a candidate")
	}

	s.m.History().Push(s)

	toRemove := s.Modules.Clone()
	toRemove.Remove(m)
	s.Module = m

	if err := s.removeModules(toRemove, true); err != nil {
		return err
	}

	if n := s.m.Notifier(); n != nil {
		n.NotifyCollapsed(s)
	}
	return nil
}

// CollapseRandom performs a weighted-random collapse over the current
// candidates (§4.3). Draw u in [0, Σp_i), walk candidates in ascending
// index order accumulating p, pick the first whose running sum >= u;
// numeric drift falls back to the first candidate. Grounded on the
// teacher's opening-book weighted probe (internal/book/book.go Probe):
// same cumulative-walk-with-fallback shape, generalized from integer
// weights to float probabilities.
func (s *Slot) CollapseRandom(rng randSource) error {
	if s.Modules.IsEmpty() {
		return &ErrCollapseFailed{Position: s.Position}
	}

	var total float64
	s.Modules.Iter(func(i int) { total += s.catalog.Modules[i].Probability })

	chosen := -1
	if total > 0 {
		u := rng.Float64() * total
		var running float64
		s.Modules.Iter(func(i int) {
			if chosen != -1 {
				return
			}
			running += s.catalog.Modules[i].Probability
			if running >= u {
				chosen = i
			}
		})
	}
	if chosen == -1 {
		chosen = s.Modules.Slice()[0]
	}

	return s.Collapse(chosen)
}

// removeModules implements §4.3 remove_modules. toRemove is first
// intersected with the current candidates into a private copy, so
// removals of already-absent modules are ignored; the caller's set is
// left unchanged.
func (s *Slot) removeModules(toRemove ModuleSet, recursive bool) error {
	actual := s.Modules.Clone()
	actual.Intersect(toRemove)
	toRemove = actual
	if toRemove.IsEmpty() {
		return nil
	}

	if s.Collapsed() && toRemove.Contains(s.Module) {
		illegalCollapse("remove_modules asked to remove the chosen module of a collapsed slot")
	}

	if hist := s.m.History(); hist.Len() > 0 {
		hist.RecordRemoval(s, toRemove)
	}

	for _, d := range Directions {
		dp := d.Inverse()
		t := s.neighbor(d)
		if t == nil {
			np := Neighbor(s.Position, d)
			if hook, ok := s.m.(RangeLimitHook); ok && s.m.GetSlot(np) == nil {
				hook.OnHitRangeLimit(np, toRemove)
			}
			continue
		}

		toRemove.Iter(func(m int) {
			s.catalog.Modules[m].PossibleNeighbors[d].Iter(func(j int) {
				if t.Health[dp][j] < 0 {
					illegalCollapse("health counter already negative")
				}
				if t.Health[dp][j] == 1 && t.Modules.Contains(j) {
					s.m.RemovalQueue().Enqueue(t.Position, j)
				}
				t.Health[dp][j]--
				if t.Health[dp][j] < 0 {
					illegalCollapse("health counter decremented below zero")
				}
			})
		})
	}

	s.Modules.Difference(toRemove)

	if s.Modules.IsEmpty() {
		return &ErrCollapseFailed{Position: s.Position}
	}

	if recursive {
		return s.m.DrainRemovalQueue()
	}
	return nil
}

// RemoveModules is the exported, non-recursive entry point used by the
// RemovalQueue drain loop and by direct host calls.
func (s *Slot) RemoveModules(toRemove ModuleSet) error {
	return s.removeModules(toRemove, false)
}

// addModules is the reverse of removeModules (§4.3), used only by
// Undo. It is never recursive: Undo never triggers further
// propagation, it restores exactly what a prior removal recorded.
func (s *Slot) addModules(toAdd ModuleSet) {
	wasCollapsed := s.Collapsed()

	toAdd.Iter(func(m int) {
		if s.Modules.Contains(m) || m == s.Module {
			return
		}
		for _, d := range Directions {
			dp := d.Inverse()
			t := s.neighbor(d)
			if t == nil {
				continue
			}
			s.catalog.Modules[m].PossibleNeighbors[d].Iter(func(j int) {
				t.Health[dp][j]++
			})
		}
		s.Modules.Add(m)
	})

	if wasCollapsed && !s.Modules.IsEmpty() {
		s.Module = NoModule
		if n := s.m.Notifier(); n != nil {
			n.NotifyCollapseUndone(s)
		}
	}
}

// EnforceConnector retains only modules whose face on direction d
// equals connector, removing the rest (§4.3, §6).
func (s *Slot) EnforceConnector(d Direction, connector string) error {
	toRemove := NewModuleSet(s.catalog)
	s.Modules.Iter(func(i int) {
		if s.catalog.Modules[i].Faces[d] != connector {
			toRemove.Add(i)
		}
	})
	return s.removeModules(toRemove, true)
}

// ExcludeConnector discards every module whose face on direction d
// equals connector (§4.3, §6).
func (s *Slot) ExcludeConnector(d Direction, connector string) error {
	toRemove := NewModuleSet(s.catalog)
	s.Modules.Iter(func(i int) {
		if s.catalog.Modules[i].Faces[d] == connector {
			toRemove.Add(i)
		}
	})
	return s.removeModules(toRemove, true)
}
