package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Holder publishes the current catalog. Readers take a snapshot per
// operation; a reload swaps the whole snapshot at once.
type Holder struct {
	current atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Current returns the active snapshot.
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// Swap installs c and returns the previous snapshot.
func (h *Holder) Swap(c *Catalog) *Catalog {
	return h.current.Swap(c)
}

// Loader reads and parses catalogs from a Source.
type Loader struct {
	Source  Source
	Options Options
}

// Load fetches the raw document and builds a validated catalog from it.
func (l *Loader) Load(ctx context.Context) (*Catalog, []byte, error) {
	raw, err := l.Source.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch catalog from %s: %w", l.Source, err)
	}
	c, err := Parse(raw, l.Options)
	if err != nil {
		return nil, nil, err
	}
	return c, raw, nil
}
