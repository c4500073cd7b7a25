package allocator

import (
	"context"
	"sync"
)

// Txn is the allocator state visible inside one atomic unit of work.
type Txn interface {
	// LoadCursor returns the persisted cursor; found is false before the first save.
	LoadCursor(ctx context.Context) (cursor Cursor, found bool, err error)
	SaveCursor(ctx context.Context, cursor Cursor) error
	PopReleased(ctx context.Context) (id string, found bool, err error)
	PushReleased(ctx context.Context, id string) error
	IsReleased(ctx context.Context, id string) (bool, error)
	ReleasedCount(ctx context.Context) (int64, error)
}

// Backend runs fn atomically: every change fn makes through the Txn is
// committed when fn returns nil and discarded otherwise.
type Backend interface {
	Atomic(ctx context.Context, fn func(txn Txn) error) error
}

// MemoryBackend keeps the cursor and the reuse pool in process memory.
type MemoryBackend struct {
	lock   sync.Mutex
	cursor *Cursor
	pool   Pool
}

// NewMemoryBackend create an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Atomic(ctx context.Context, fn func(txn Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	txn := &memoryTxn{backend: b}
	if b.cursor != nil {
		cursor := *b.cursor
		txn.cursor = &cursor
	}

	if err := fn(txn); err != nil {
		return err
	}

	txn.commit()
	return nil
}

// memoryTxn stages changes until commit. Pops consume the committed pool
// first and then the identifiers pushed in the same transaction.
type memoryTxn struct {
	backend     *MemoryBackend
	cursor      *Cursor
	cursorDirty bool
	popped      int
	pushed      Pool
}

func (t *memoryTxn) LoadCursor(ctx context.Context) (Cursor, bool, error) {
	if t.cursor == nil {
		return Cursor{}, false, nil
	}

	return *t.cursor, true, nil
}

func (t *memoryTxn) SaveCursor(ctx context.Context, cursor Cursor) error {
	t.cursor = &cursor
	t.cursorDirty = true
	return nil
}

func (t *memoryTxn) PopReleased(ctx context.Context) (string, bool, error) {
	committed := &t.backend.pool
	if t.popped < committed.Len() {
		id := committed.items[committed.head+t.popped]
		t.popped++
		return id, true, nil
	}

	id, ok := t.pushed.PopFront()
	return id, ok, nil
}

func (t *memoryTxn) PushReleased(ctx context.Context, id string) error {
	t.pushed.Push(id)
	return nil
}

func (t *memoryTxn) IsReleased(ctx context.Context, id string) (bool, error) {
	if t.pushed.Contains(id) {
		return true, nil
	}

	committed := &t.backend.pool
	count := committed.counts[id]
	for i := 0; i < t.popped && count > 0; i++ {
		if committed.items[committed.head+i] == id {
			count--
		}
	}

	return count > 0, nil
}

func (t *memoryTxn) ReleasedCount(ctx context.Context) (int64, error) {
	return int64(t.backend.pool.Len() - t.popped + t.pushed.Len()), nil
}

func (t *memoryTxn) commit() {
	b := t.backend
	for i := 0; i < t.popped; i++ {
		b.pool.PopFront()
	}

	for _, id := range t.pushed.Items() {
		b.pool.Push(id)
	}

	if t.cursorDirty {
		b.cursor = t.cursor
	}
}

// Released returns the committed reuse pool, oldest first
func (b *MemoryBackend) Released() []string {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.pool.Items()
}
