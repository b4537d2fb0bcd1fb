package livecoll

import "sort"

// Collection is an ordered sequence of records, unique by id, newest first.
// It is not safe for concurrent use; the Synchronizer serializes access.
type Collection[R Record] struct {
	items []R
	index map[string]int
}

func NewCollection[R Record]() *Collection[R] {
	return &Collection[R]{index: make(map[string]int)}
}

func (c *Collection[R]) Len() int {
	return len(c.items)
}

func (c *Collection[R]) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection[R]) Get(id string) (R, bool) {
	if i, ok := c.index[id]; ok {
		return c.items[i], true
	}
	var zero R
	return zero, false
}

// Snapshot returns a copy of the ordered records, safe to hand out.
func (c *Collection[R]) Snapshot() []R {
	out := make([]R, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[R]) insertHead(r R) {
	c.items = append([]R{r}, c.items...)
	for id, i := range c.index {
		c.index[id] = i + 1
	}
	c.index[r.RecordID()] = 0
}

func (c *Collection[R]) push(r R) {
	c.index[r.RecordID()] = len(c.items)
	c.items = append(c.items, r)
}

// replace swaps the snapshot at the record's current position, preserving
// order.
func (c *Collection[R]) replace(i int, r R) {
	c.items[i] = r
}

func (c *Collection[R]) remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for oid, oi := range c.index {
		if oi > i {
			c.index[oid] = oi - 1
		}
	}
	return true
}

// sortNewestFirst restores creation-time-descending order after a bulk seed.
func (c *Collection[R]) sortNewestFirst() {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].CreatedTime().After(c.items[j].CreatedTime())
	})
	for i, r := range c.items {
		c.index[r.RecordID()] = i
	}
}
