package remotetest

import (
	"sync"

	"github.com/Dhoini/customer-console/internal/domain"
)

// collection is an ordered in-memory table keyed by record id
type collection[T domain.Record] struct {
	name  string
	mutex sync.RWMutex
	order []string
	items map[string]T
}

func newCollection[T domain.Record](name string) *collection[T] {
	return &collection[T]{
		name:  name,
		items: make(map[string]T),
	}
}

// list returns every record in insertion order
func (c *collection[T]) list() []T {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	records := make([]T, 0, len(c.order))
	for _, id := range c.order {
		records = append(records, c.items[id])
	}
	return records
}

func (c *collection[T]) create(record T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := record.RecordID()
	if _, exists := c.items[id]; exists {
		return domain.NewDuplicateError(c.name, id)
	}

	c.items[id] = record
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) update(id string, record T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[id]; !exists {
		return domain.NewNotFoundError(c.name, id)
	}

	c.items[id] = record
	return nil
}

func (c *collection[T]) delete(id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[id]; !exists {
		return domain.NewNotFoundError(c.name, id)
	}

	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// reset replaces the content; later duplicates of an id overwrite earlier ones
func (c *collection[T]) reset(records []T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]T, len(records))
	c.order = c.order[:0]
	for _, record := range records {
		id := record.RecordID()
		if _, exists := c.items[id]; !exists {
			c.order = append(c.order, id)
		}
		c.items[id] = record
	}
}
