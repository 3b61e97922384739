package wfc

// RemovalQueue is the propagation worklist (§4.4): a FIFO of
// (position, ModuleSet) entries, deduplicated by position so that
// repeated enqueues against the same slot accumulate via set union
// rather than creating duplicate work. Cleared whenever the Collapser
// starts a new area or catches a CollapseFailed.
type RemovalQueue struct {
	catalog *Catalog
	order   []Position
	pending map[Position]ModuleSet
}

// NewRemovalQueue returns an empty queue sized for catalog c.
func NewRemovalQueue(c *Catalog) *RemovalQueue {
	return &RemovalQueue{
		catalog: c,
		pending: make(map[Position]ModuleSet),
	}
}

// Enqueue records that module i must be removed from the slot at pos.
// If pos is already pending, i is unioned into its existing set
// in-place; otherwise pos is appended to the FIFO order.
func (q *RemovalQueue) Enqueue(pos Position, i int) {
	ms, ok := q.pending[pos]
	if !ok {
		ms = NewModuleSet(q.catalog)
		q.order = append(q.order, pos)
	}
	ms.Add(i)
	q.pending[pos] = ms
}

// Dequeue pops the earliest still-pending entry. Entries for positions
// enqueued multiple times appear only once, at their first insertion
// point, carrying the union of every module queued for removal there.
func (q *RemovalQueue) Dequeue() (Position, ModuleSet, bool) {
	for len(q.order) > 0 {
		pos := q.order[0]
		q.order = q.order[1:]
		ms, ok := q.pending[pos]
		if !ok {
			continue
		}
		delete(q.pending, pos)
		return pos, ms, true
	}
	return Position{}, ModuleSet{}, false
}

// Len reports the number of distinct positions still pending.
func (q *RemovalQueue) Len() int { return len(q.order) }

// Clear discards every pending entry, invalidating queued propagation.
func (q *RemovalQueue) Clear() {
	q.order = nil
	q.pending = make(map[Position]ModuleSet)
}
