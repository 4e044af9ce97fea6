package form

import (
	"errors"
	"fmt"
)

// ErrAlreadyCached is returned when a form type is cached twice.
var ErrAlreadyCached = errors.New("form already cached")

// Cache holds the final structure of each processed form for later forms
// to read. Each form type is written once.
type Cache struct {
	entries map[Type]*Structure
	order   []Type
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Type]*Structure)}
}

// Get returns the cached structure for t.
func (c *Cache) Get(t Type) (*Structure, bool) {
	if c == nil {
		return nil, false
	}

	s, ok := c.entries[t]

	return s, ok
}

// Put stores the final structure of t.
func (c *Cache) Put(t Type, s *Structure) error {
	if _, ok := c.entries[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyCached, t)
	}

	if c.entries == nil {
		c.entries = make(map[Type]*Structure)
	}

	c.entries[t] = s
	c.order = append(c.order, t)

	return nil
}

// Types returns cached form types in the order they were stored.
func (c *Cache) Types() []Type {
	if c == nil {
		return nil
	}

	return append([]Type(nil), c.order...)
}
