package allocator

// Pool is an in-memory FIFO of released identifiers.
//
// Caller is responsible for locking.
type Pool struct {
	items  []string
	head   int
	counts map[string]int
}

// Push appends id to the back of the pool
func (p *Pool) Push(id string) {
	if p.counts == nil {
		p.counts = make(map[string]int)
	}

	p.items = append(p.items, id)
	p.counts[id]++
}

// PopFront removes and returns the oldest identifier
func (p *Pool) PopFront() (string, bool) {
	if p.head >= len(p.items) {
		return "", false
	}

	id := p.items[p.head]
	p.items[p.head] = ""
	p.head++

	if p.counts[id]--; p.counts[id] <= 0 {
		delete(p.counts, id)
	}

	// reclaim the consumed prefix once it dominates the backing array
	if p.head > 64 && p.head*2 > len(p.items) {
		p.items = append([]string(nil), p.items[p.head:]...)
		p.head = 0
	}

	return id, true
}

// Len returns the number of pooled identifiers
func (p *Pool) Len() int {
	return len(p.items) - p.head
}

// Contains reports whether id is waiting in the pool
func (p *Pool) Contains(id string) bool {
	return p.counts[id] > 0
}

// Items returns the pooled identifiers, oldest first
func (p *Pool) Items() []string {
	return append([]string{}, p.items[p.head:]...)
}
