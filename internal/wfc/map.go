package wfc

// Notifier receives the two callbacks a Slot fires when its collapsed
// state changes, normally implemented by the Collapser driving a run
// (§4.7).
type Notifier interface {
	NotifyCollapsed(s *Slot)
	NotifyCollapseUndone(s *Slot)
}

// RangeLimitHook is an optional extension a Map may implement to be
// told when propagation would have crossed into a cell outside its
// addressable range (§4.5, §6 on_hit_range_limit).
type RangeLimitHook interface {
	OnHitRangeLimit(pos Position, removed ModuleSet)
}

// Map is the abstract addressing layer over the 3D lattice (§4.5). It
// owns Slots, the History ring, and the RemovalQueue; it does not
// itself enforce any Slot/Collapser invariant. Two reference
// implementations ship in this package: BoxMap (bounded) and
// StreamingMap (lazy, optionally range-limited).
type Map interface {
	// GetSlot returns the slot at p, or nil if p is outside the
	// addressable area. Implementations that lazily create slots may
	// do so here.
	GetSlot(p Position) *Slot

	Catalog() *Catalog
	History() *History
	RemovalQueue() *RemovalQueue

	// Notifier/SetNotifier wire the Collapser driving a run into every
	// Slot's collapse/uncollapse callbacks.
	Notifier() Notifier
	SetNotifier(n Notifier)

	// ApplyBoundaryConstraints enforces or excludes connectors on the
	// slots named by cs (§6).
	ApplyBoundaryConstraints(cs []BoundaryConstraint) error

	// DrainRemovalQueue pops every pending (position, ModuleSet) entry
	// from the RemovalQueue, applying each as a non-recursive
	// remove_modules on the addressed slot (§4.4). Recursive
	// Slot.removeModules calls delegate here.
	DrainRemovalQueue() error
}

// ConstraintMode selects whether a boundary constraint keeps only
// matching modules (enforce) or discards them (exclude).
type ConstraintMode uint8

const (
	ConstraintEnforce ConstraintMode = iota
	ConstraintExclude
)

// BoundaryConstraint is one host-authored rule applied at map setup
// time: "on direction d from position p, enforce/exclude connector c".
type BoundaryConstraint struct {
	Position  Position
	Direction Direction
	Connector string
	Mode      ConstraintMode
}

// shared holds the state every Map implementation owns in common.
type shared struct {
	catalog  *Catalog
	history  *History
	queue    *RemovalQueue
	notifier Notifier
}

func newShared(c *Catalog, historyCapacity int) *shared {
	s := &shared{
		catalog: c,
		queue:   NewRemovalQueue(c),
	}
	s.history = NewHistory(historyCapacity, func(item *HistoryItem) {
		item.Slot.forget()
	})
	return s
}

func (s *shared) Catalog() *Catalog           { return s.catalog }
func (s *shared) History() *History           { return s.history }
func (s *shared) RemovalQueue() *RemovalQueue { return s.queue }
func (s *shared) Notifier() Notifier          { return s.notifier }
func (s *shared) SetNotifier(n Notifier)      { s.notifier = n }

// drainRemovalQueue implements DrainRemovalQueue for any Map embedding
// *shared, since GetSlot differs by map variant but draining does not.
func (s *shared) drainRemovalQueue(m Map) error {
	for {
		pos, set, ok := s.queue.Dequeue()
		if !ok {
			return nil
		}
		slot := m.GetSlot(pos)
		if slot == nil || slot.Forgotten || slot.Collapsed() {
			continue
		}
		if err := slot.RemoveModules(set); err != nil {
			return err
		}
	}
}

func (s *shared) applyConstraint(m Map, c BoundaryConstraint) error {
	slot := m.GetSlot(c.Position)
	if slot == nil {
		return nil
	}
	switch c.Mode {
	case ConstraintEnforce:
		return slot.EnforceConnector(c.Direction, c.Connector)
	case ConstraintExclude:
		return slot.ExcludeConnector(c.Direction, c.Connector)
	}
	return nil
}

// BoxMap is a bounded lattice: a dense box of slots, Size.X *
// Size.Y * Size.Z, returning nil outside the box.
type BoxMap struct {
	*shared
	origin Position
	size   Position
	slots  []Slot
}

// NewBoxMap creates a fully-candidate bounded box of slots spanning
// [origin, origin+size) with the given catalog and History capacity.
func NewBoxMap(c *Catalog, origin, size Position, historyCapacity int) *BoxMap {
	bm := &BoxMap{
		shared: newShared(c, historyCapacity),
		origin: origin,
		size:   size,
		slots:  make([]Slot, size.X*size.Y*size.Z),
	}
	for idx := range bm.slots {
		x := idx % size.X
		y := (idx / size.X) % size.Y
		z := idx / (size.X * size.Y)
		pos := Position{origin.X + x, origin.Y + y, origin.Z + z}
		initSlot(&bm.slots[idx], bm, pos, c)
	}
	return bm
}

func (bm *BoxMap) index(p Position) (int, bool) {
	x, y, z := p.X-bm.origin.X, p.Y-bm.origin.Y, p.Z-bm.origin.Z
	if x < 0 || y < 0 || z < 0 || x >= bm.size.X || y >= bm.size.Y || z >= bm.size.Z {
		return 0, false
	}
	return z*bm.size.X*bm.size.Y + y*bm.size.X + x, true
}

// GetSlot implements Map.
func (bm *BoxMap) GetSlot(p Position) *Slot {
	idx, ok := bm.index(p)
	if !ok {
		return nil
	}
	return &bm.slots[idx]
}

// ApplyBoundaryConstraints implements Map.
func (bm *BoxMap) ApplyBoundaryConstraints(cs []BoundaryConstraint) error {
	for _, c := range cs {
		if err := bm.applyConstraint(bm, c); err != nil {
			return err
		}
	}
	return nil
}

// DrainRemovalQueue implements Map.
func (bm *BoxMap) DrainRemovalQueue() error {
	return bm.shared.drainRemovalQueue(bm)
}

// Origin returns the box's lower corner.
func (bm *BoxMap) Origin() Position { return bm.origin }

// Size returns the box's extent along each axis.
func (bm *BoxMap) Size() Position { return bm.size }

// Positions returns every position addressable by this box, in
// scan order (z-major, then y, then x) — a convenience for building
// the target sequence passed to Collapser.Collapse.
func (bm *BoxMap) Positions() []Position {
	out := make([]Position, 0, len(bm.slots))
	for idx := range bm.slots {
		out = append(out, bm.slots[idx].Position)
	}
	return out
}

// StreamingMap lazily creates slots on first access and may define a
// range limit outside which GetSlot returns nil (§4.5).
type StreamingMap struct {
	*shared
	slots      map[Position]*Slot
	hasLimit   bool
	limitOrigin Position
	limitSize  Position
}

// NewStreamingMap creates an unbounded (or optionally range-limited)
// lazily-populated lattice.
func NewStreamingMap(c *Catalog, historyCapacity int) *StreamingMap {
	return &StreamingMap{
		shared: newShared(c, historyCapacity),
		slots:  make(map[Position]*Slot),
	}
}

// SetRangeLimit restricts GetSlot to the given box; outside it,
// GetSlot returns nil exactly as an out-of-bounds BoxMap position
// would. StreamingMap does not itself implement RangeLimitHook, so no
// on_hit_range_limit callback is made when propagation reaches the
// limit.
func (sm *StreamingMap) SetRangeLimit(origin, size Position) {
	sm.hasLimit = true
	sm.limitOrigin = origin
	sm.limitSize = size
}

func (sm *StreamingMap) withinLimit(p Position) bool {
	if !sm.hasLimit {
		return true
	}
	x, y, z := p.X-sm.limitOrigin.X, p.Y-sm.limitOrigin.Y, p.Z-sm.limitOrigin.Z
	return x >= 0 && y >= 0 && z >= 0 && x < sm.limitSize.X && y < sm.limitSize.Y && z < sm.limitSize.Z
}

// GetSlot implements Map, lazily creating a fresh full slot on first
// access within range.
func (sm *StreamingMap) GetSlot(p Position) *Slot {
	if !sm.withinLimit(p) {
		return nil
	}
	if s, ok := sm.slots[p]; ok {
		return s
	}
	s := &Slot{}
	initSlot(s, sm, p, sm.catalog)
	sm.slots[p] = s
	return s
}

// ApplyBoundaryConstraints implements Map.
func (sm *StreamingMap) ApplyBoundaryConstraints(cs []BoundaryConstraint) error {
	for _, c := range cs {
		if err := sm.applyConstraint(sm, c); err != nil {
			return err
		}
	}
	return nil
}

// DrainRemovalQueue implements Map.
func (sm *StreamingMap) DrainRemovalQueue() error {
	return sm.shared.drainRemovalQueue(sm)
}
