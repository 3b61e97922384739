package wfc

import (
	"errors"
	"math"
)

// ProgressObserver is the injectable cooperative-yield point (§5, §6).
// OnProgress is invoked at a cadence of roughly every 20 work-area
// shrinkage events during a Collapse call; returning true requests
// cancellation.
type ProgressObserver interface {
	OnProgress(remaining, total int) bool
}

const progressCadence = 20

// Collapser is the top-level driver (§4.7): it repeatedly selects the
// minimum-entropy slot from a work set, collapses it, drains
// propagation, and backtracks on CollapseFailed. It implements Notifier
// so a Map can call back into it as slots collapse/uncollapse.
type Collapser struct {
	rng        randSource
	workArea   map[*Slot]struct{}
	buildQueue []*Slot

	barrier int
	amount  int
}

// NewCollapser returns a Collapser drawing all randomness from rng.
// One Collapser should drive exactly one run's worth of collapses from
// one seeded source, per §5's "single shared source for one run"
// contract.
func NewCollapser(rng randSource) *Collapser {
	return &Collapser{
		rng:      rng,
		workArea: make(map[*Slot]struct{}),
	}
}

// NotifyCollapsed implements Notifier.
func (c *Collapser) NotifyCollapsed(s *Slot) {
	delete(c.workArea, s)
	c.buildQueue = append(c.buildQueue, s)
}

// NotifyCollapseUndone implements Notifier.
func (c *Collapser) NotifyCollapseUndone(s *Slot) {
	c.workArea[s] = struct{}{}
}

// DrainBuildQueue calls fn for every slot collapsed since the last
// drain, in collapse order, then empties the queue (§4.7, §6
// on_build_ready).
func (c *Collapser) DrainBuildQueue(fn func(*Slot)) {
	for _, s := range c.buildQueue {
		fn(s)
	}
	c.buildQueue = c.buildQueue[:0]
}

// Collapse drives m toward a fully-collapsed state over the given
// target positions (§4.7). Already-collapsed or unaddressable targets
// are silently skipped when building the work area.
func (c *Collapser) Collapse(m Map, targets []Position, observer ProgressObserver) error {
	m.SetNotifier(c)
	m.RemovalQueue().Clear()

	c.workArea = make(map[*Slot]struct{})
	for _, p := range targets {
		s := m.GetSlot(p)
		if s == nil || s.Collapsed() {
			continue
		}
		c.workArea[s] = struct{}{}
	}

	total := len(c.workArea)
	shrinkEvents := 0
	historyExhausted := false

	for len(c.workArea) > 0 {
		if observer != nil && shrinkEvents%progressCadence == 0 {
			if observer.OnProgress(len(c.workArea), total) {
				m.RemovalQueue().Clear()
				return ErrCancelled
			}
		}

		selected := c.selectMinEntropy()
		err := selected.CollapseRandom(c.rng)
		if err == nil {
			shrinkEvents++
			historyExhausted = false
			continue
		}

		var cf *ErrCollapseFailed
		if !errors.As(err, &cf) {
			return err
		}

		if historyExhausted {
			return ErrGenerationFailed
		}

		m.RemovalQueue().Clear()
		amount := c.onFailure(m.History())
		if uerr := c.Undo(m, amount); uerr != nil {
			return uerr
		}
		if m.History().Len() == 0 {
			historyExhausted = true
		}
	}
	return nil
}

// CollapseBox is the box-overload of Collapse: it expands
// [origin, origin+size) into a position sequence and forwards.
func (c *Collapser) CollapseBox(m Map, origin, size Position, observer ProgressObserver) error {
	targets := make([]Position, 0, size.X*size.Y*size.Z)
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				targets = append(targets, Position{origin.X + x, origin.Y + y, origin.Z + z})
			}
		}
	}
	return c.Collapse(m, targets, observer)
}

// selectMinEntropy scans the work area for the slot with minimum
// candidate-set entropy. Ties resolve to whichever slot the scan
// encounters first; Go's map iteration order varies between calls but
// is stable for the duration of a single scan, satisfying §4.7's
// "first-encountered wins" tie-break within one selection.
func (c *Collapser) selectMinEntropy() *Slot {
	var best *Slot
	bestEntropy := math.Inf(1)
	for s := range c.workArea {
		e := s.Modules.Entropy()
		if best == nil || e < bestEntropy {
			best = s
			bestEntropy = e
		}
	}
	return best
}

// onFailure applies the backtrack policy (§4.8): the barrier holds
// History's lifetime push count (TotalPushes, not the current ring
// size) as of the last failure that raised it. A failure after further
// pushes raises the barrier and resets the undo window to 2; a failure
// with no push since then doubles the window.
func (c *Collapser) onFailure(h *History) int {
	if h.TotalPushes() > c.barrier {
		c.barrier = h.TotalPushes()
		c.amount = 2
	} else {
		c.amount *= 2
	}
	return c.amount
}

// Undo pops up to steps HistoryItems, restoring every recorded removal
// and re-admitting each collapse's slot to the work area (§4.7). If
// History becomes empty, the backtrack barrier resets to 0.
func (c *Collapser) Undo(m Map, steps int) error {
	h := m.History()
	for steps > 0 && h.Len() > 0 {
		item := h.Pop()
		for pos, set := range item.Removed {
			slot := m.GetSlot(pos)
			if slot == nil || slot.Forgotten {
				continue
			}
			slot.addModules(set)
		}
		// Unconditional per §9: add_modules only clears Module and
		// notifies when it actually restored a candidate; a collapse
		// whose own to_remove was empty (a catalog-forced singleton
		// pick) never recorded an entry for its own position, so this
		// step is load-bearing, not a redundant safety net.
		if !item.Slot.Forgotten {
			item.Slot.Module = NoModule
			c.NotifyCollapseUndone(item.Slot)
		}
		steps--
	}
	if h.Len() == 0 {
		c.barrier = 0
	}
	return nil
}
