package allocator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mylxsw/asteria/log"
)

var (
	// ErrNamespaceExhausted is returned when the reuse pool is empty and the traversal has emitted every identifier.
	ErrNamespaceExhausted = errors.New("namespace exhausted")
	// ErrInvalidRelease is returned when releasing an identifier that is not active.
	ErrInvalidRelease = errors.New("invalid release")
)

const (
	SourcePool      = "pool"
	SourceTraversal = "traversal"
)

// Observer receives allocator events, typically for metrics
type Observer interface {
	OnAllocate(source string, elapsed time.Duration, err error)
	OnRelease(elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) OnAllocate(string, time.Duration, error) {}
func (nopObserver) OnRelease(time.Duration, error)          {}

type Option func(alloc *Allocator)

// WithObserver 设置事件观察者
func WithObserver(observer Observer) Option {
	return func(alloc *Allocator) {
		if observer != nil {
			alloc.observer = observer
		}
	}
}

// WithReleaseValidation controls whether Release rejects identifiers that are
// malformed, were never allocated, or are already in the reuse pool.
func WithReleaseValidation(enabled bool) Option {
	return func(alloc *Allocator) {
		alloc.validateRelease = enabled
	}
}

// Allocator hands out identifiers from the reuse pool first and from the
// traversal cursor once the pool is empty.
type Allocator struct {
	lock            sync.Mutex
	encoder         *Encoder
	backend         Backend
	observer        Observer
	validateRelease bool
}

// Status is a snapshot of the allocator state
type Status struct {
	Alphabet  string `json:"alphabet"`
	Width     int    `json:"width"`
	Size      int64  `json:"size"`
	Remaining int64  `json:"remaining"`
	Released  int64  `json:"released"`
	Exhausted bool   `json:"exhausted"`
	Cursor    Cursor `json:"cursor"`
}

// New create an allocator over the encoder's namespace
func New(encoder *Encoder, backend Backend, opts ...Option) *Allocator {
	alloc := &Allocator{
		encoder:         encoder,
		backend:         backend,
		observer:        nopObserver{},
		validateRelease: true,
	}

	for _, opt := range opts {
		opt(alloc)
	}

	return alloc
}

// Encoder returns the encoder the allocator emits identifiers with
func (alloc *Allocator) Encoder() *Encoder {
	return alloc.encoder
}

// Allocate returns the next identifier
func (alloc *Allocator) Allocate(ctx context.Context) (string, error) {
	return alloc.AllocateFunc(ctx, nil)
}

// AllocateFunc allocates an identifier and calls fn with it inside the same
// atomic unit. If fn fails, the allocation is rolled back.
func (alloc *Allocator) AllocateFunc(ctx context.Context, fn func(txn Txn, id string) error) (string, error) {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()

	startedAt := time.Now()

	var id, source string
	err := alloc.backend.Atomic(ctx, func(txn Txn) error {
		var err error
		id, source, err = alloc.next(ctx, txn)
		if err != nil {
			return err
		}

		if fn != nil {
			return fn(txn, id)
		}

		return nil
	})

	alloc.observer.OnAllocate(source, time.Since(startedAt), err)
	if err != nil {
		if errors.Is(err, ErrNamespaceExhausted) {
			log.Module("allocator").Warningf("namespace of %d identifiers exhausted", alloc.encoder.Size())
		}
		return "", err
	}

	return id, nil
}

func (alloc *Allocator) next(ctx context.Context, txn Txn) (string, string, error) {
	id, found, err := txn.PopReleased(ctx)
	if err != nil {
		return "", SourcePool, fmt.Errorf("pop reuse pool: %w", err)
	}

	if found {
		return id, SourcePool, nil
	}

	cursor, err := alloc.loadCursor(ctx, txn)
	if err != nil {
		return "", SourceTraversal, err
	}

	n, ok := cursor.Next()
	if !ok {
		return "", SourceTraversal, ErrNamespaceExhausted
	}

	if err := txn.SaveCursor(ctx, cursor); err != nil {
		return "", SourceTraversal, fmt.Errorf("save cursor: %w", err)
	}

	return alloc.encoder.Encode(n), SourceTraversal, nil
}

func (alloc *Allocator) loadCursor(ctx context.Context, txn Txn) (Cursor, error) {
	cursor, found, err := txn.LoadCursor(ctx)
	if err != nil {
		return Cursor{}, fmt.Errorf("load cursor: %w", err)
	}

	if !found {
		return NewCursor(alloc.encoder.Size()), nil
	}

	if cursor.Size != alloc.encoder.Size() {
		return Cursor{}, fmt.Errorf("persisted cursor covers %d identifiers but namespace has %d", cursor.Size, alloc.encoder.Size())
	}

	return cursor, nil
}

// Release returns id to the reuse pool
func (alloc *Allocator) Release(ctx context.Context, id string) error {
	return alloc.ReleaseFunc(ctx, id, nil)
}

// ReleaseFunc calls fn and then returns id to the reuse pool, inside the same
// atomic unit. If fn fails, id is not released.
func (alloc *Allocator) ReleaseFunc(ctx context.Context, id string, fn func(txn Txn) error) error {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()

	startedAt := time.Now()
	err := alloc.backend.Atomic(ctx, func(txn Txn) error {
		if fn != nil {
			if err := fn(txn); err != nil {
				return err
			}
		}

		if alloc.validateRelease {
			if err := alloc.checkRelease(ctx, txn, id); err != nil {
				return err
			}
		}

		if err := txn.PushReleased(ctx, id); err != nil {
			return fmt.Errorf("push reuse pool: %w", err)
		}

		return nil
	})

	alloc.observer.OnRelease(time.Since(startedAt), err)
	return err
}

func (alloc *Allocator) checkRelease(ctx context.Context, txn Txn, id string) error {
	n, err := alloc.encoder.Decode(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRelease, err)
	}

	cursor, err := alloc.loadCursor(ctx, txn)
	if err != nil {
		return err
	}

	if !cursor.Emitted(n) {
		return fmt.Errorf("%w: %s was never allocated", ErrInvalidRelease, id)
	}

	released, err := txn.IsReleased(ctx, id)
	if err != nil {
		return fmt.Errorf("check reuse pool: %w", err)
	}

	if released {
		return fmt.Errorf("%w: %s is already released", ErrInvalidRelease, id)
	}

	return nil
}

// Status returns a snapshot of the cursor and the reuse pool
func (alloc *Allocator) Status(ctx context.Context) (Status, error) {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()

	status := Status{
		Alphabet: alloc.encoder.Alphabet(),
		Width:    alloc.encoder.Width(),
		Size:     alloc.encoder.Size(),
	}

	err := alloc.backend.Atomic(ctx, func(txn Txn) error {
		cursor, err := alloc.loadCursor(ctx, txn)
		if err != nil {
			return err
		}

		released, err := txn.ReleasedCount(ctx)
		if err != nil {
			return fmt.Errorf("count reuse pool: %w", err)
		}

		status.Cursor = cursor
		status.Released = released
		status.Remaining = cursor.Remaining()
		status.Exhausted = status.Remaining == 0 && released == 0
		return nil
	})

	return status, err
}
