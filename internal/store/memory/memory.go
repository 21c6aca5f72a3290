package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"portalunk/internal/core"
	"portalunk/internal/store"
)

// Collection keeps records in insertion order behind a mutex.
type Collection[T any, P store.Record[T]] struct {
	mu    sync.Mutex
	items []T
	now   func() time.Time
}

func NewCollection[T any, P store.Record[T]](seed ...T) *Collection[T, P] {
	return &Collection[T, P]{items: slices.Clone(seed), now: time.Now}
}

func (c *Collection[T, P]) GetAll(_ context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items), nil
}

func (c *Collection[T, P]) GetByID(_ context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	return c.items[i], nil
}

// Create assigns a uuid and creation timestamp when missing.
func (c *Collection[T, P]) Create(_ context.Context, rec T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, _ := core.NormalizeTimestamp(c.now())
	P(&rec).Stamp(uuid.NewString(), ts)
	if c.index(P(&rec).RecordID()) >= 0 {
		var zero T
		return zero, fmt.Errorf("create %s: duplicate id", P(&rec).RecordID())
	}
	c.items = append(c.items, rec)
	return rec, nil
}

func (c *Collection[T, P]) Update(_ context.Context, id string, patch T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	P(&c.items[i]).Merge(patch)
	return c.items[i], nil
}

func (c *Collection[T, P]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

func (c *Collection[T, P]) index(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool {
		return P(&item).RecordID() == id
	})
}

// NewStores returns empty in-memory collections.
func NewStores() store.Stores {
	return store.Stores{
		Events:   NewCollection[core.EventRecord](),
		Payments: NewCollection[core.PaymentRecord](),
		DJs:      NewCollection[core.DJRecord](),
	}
}

// NewFromFiles seeds the collections from events.json, payments.json and
// djs.json under base. Missing files leave the collection empty.
func NewFromFiles(base string) (store.Stores, error) {
	var (
		events   []core.EventRecord
		payments []core.PaymentRecord
		djs      []core.DJRecord
	)
	if err := readSeed(filepath.Join(base, "events.json"), &events); err != nil {
		return store.Stores{}, err
	}
	if err := readSeed(filepath.Join(base, "payments.json"), &payments); err != nil {
		return store.Stores{}, err
	}
	if err := readSeed(filepath.Join(base, "djs.json"), &djs); err != nil {
		return store.Stores{}, err
	}
	return store.Stores{
		Events:   NewCollection(events...),
		Payments: NewCollection(payments...),
		DJs:      NewCollection(djs...),
	}, nil
}

func readSeed(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	return nil
}
