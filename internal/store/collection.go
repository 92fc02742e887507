// Package store keeps the session's local copy of each remote collection.
// Local state only changes through Load or after the record store confirmed
// a write.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/pkg/logger"
)

// Source lists a remote collection
type Source[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
}

// Collection is the ordered, id-unique local copy of one remote collection.
// It is safe for concurrent use.
type Collection[T domain.Record] struct {
	entity  string
	source  Source[T]
	log     *logger.Logger
	metrics metrics.ConsoleMetrics

	mutex   sync.RWMutex
	records []T
	index   map[string]int
	version uint64

	// tickets order loads and local mutations; applied is the ticket of the
	// latest state written into records
	tickets uint64
	applied uint64
}

// NewCollection creates an empty collection fed by source
func NewCollection[T domain.Record](entity string, source Source[T], log *logger.Logger, m metrics.ConsoleMetrics) *Collection[T] {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Collection[T]{
		entity:  entity,
		source:  source,
		log:     log,
		metrics: m,
		index:   make(map[string]int),
	}
}

// Entity returns the collection name
func (c *Collection[T]) Entity() string {
	return c.entity
}

// Load replaces the whole collection with a fresh listing. The listing is
// discarded (applied == false) when a newer load or a confirmed local
// mutation was applied while it was in flight. On error nothing changes.
func (c *Collection[T]) Load(ctx context.Context) (bool, error) {
	c.mutex.Lock()
	c.tickets++
	ticket := c.tickets
	c.mutex.Unlock()

	records, err := c.source.List(ctx)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", c.entity, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ticket < c.applied {
		c.log.Debugw("Discarding stale load", "entity", c.entity, "ticket", ticket, "applied", c.applied)
		c.metrics.IncStaleLoad(c.entity)
		return false, nil
	}

	c.replace(records)
	c.applied = ticket
	c.version++
	c.metrics.SetCollectionSize(c.entity, len(c.records))
	c.log.Debugw("Collection loaded", "entity", c.entity, "count", len(c.records))
	return true, nil
}

// replace installs records, keeping the first of any duplicate ids
func (c *Collection[T]) replace(records []T) {
	c.records = make([]T, 0, len(records))
	c.index = make(map[string]int, len(records))
	for _, record := range records {
		id := record.RecordID()
		if _, exists := c.index[id]; exists {
			c.log.Warnw("Duplicate id in listing, keeping first", "entity", c.entity, "id", id)
			continue
		}
		c.index[id] = len(c.records)
		c.records = append(c.records, record)
	}
}

// mutated marks a confirmed local write; caller holds the lock
func (c *Collection[T]) mutated() {
	c.tickets++
	c.applied = c.tickets
	c.version++
	c.metrics.SetCollectionSize(c.entity, len(c.records))
}

// ApplyCreate appends a record the record store has stored
func (c *Collection[T]) ApplyCreate(record T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := record.RecordID()
	if _, exists := c.index[id]; exists {
		return domain.NewDuplicateError(c.entity, id)
	}

	c.index[id] = len(c.records)
	c.records = append(c.records, record)
	c.mutated()
	return nil
}

// ApplyUpdate replaces a record in place, keeping its position
func (c *Collection[T]) ApplyUpdate(record T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := record.RecordID()
	i, exists := c.index[id]
	if !exists {
		return domain.NewNotFoundError(c.entity, id)
	}

	c.records[i] = record
	c.mutated()
	return nil
}

// ApplyRemove drops a record the record store has deleted
func (c *Collection[T]) ApplyRemove(id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	i, exists := c.index[id]
	if !exists {
		return domain.NewNotFoundError(c.entity, id)
	}

	records := make([]T, 0, len(c.records)-1)
	records = append(records, c.records[:i]...)
	records = append(records, c.records[i+1:]...)
	c.records = records

	delete(c.index, id)
	for j := i; j < len(c.records); j++ {
		c.index[c.records[j].RecordID()] = j
	}
	c.mutated()
	return nil
}

// Snapshot returns a copy of the records in collection order
func (c *Collection[T]) Snapshot() []T {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Get returns the record with id
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	i, exists := c.index[id]
	if !exists {
		var zero T
		return zero, false
	}
	return c.records[i], true
}

// Len returns the number of records
func (c *Collection[T]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.records)
}

// Version increases on every applied change
func (c *Collection[T]) Version() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.version
}
