package workers

import (
	"bytes"
	"context"
	"log"
	"sync"
	"time"

	"wordgame-economy/catalog"

	"github.com/jonboulle/clockwork"
)

// CatalogSyncClient reloads the catalog from its source and swaps it into the
// holder when the document changed.
type CatalogSyncClient struct {
	Loader *catalog.Loader
	Holder *catalog.Holder
	Clock  clockwork.Clock

	mu   sync.Mutex
	last []byte
}

// NewCatalogSyncClient starts from the document the holder was built from.
func NewCatalogSyncClient(loader *catalog.Loader, holder *catalog.Holder, initial []byte, clock clockwork.Clock) *CatalogSyncClient {
	return &CatalogSyncClient{
		Loader: loader,
		Holder: holder,
		Clock:  clock,
		last:   initial,
	}
}

// Sync fetches once. It reports whether a new catalog was installed; a
// document that fails validation leaves the current catalog in place.
func (c *CatalogSyncClient) Sync(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, raw, err := c.Loader.Load(ctx)
	if err != nil {
		return false, err
	}
	if bytes.Equal(raw, c.last) {
		return false, nil
	}
	c.Holder.Swap(cat)
	c.last = raw
	log.Printf("📦 [CATALOG] Installed new catalog from %s (%d items, %d power-ups)",
		c.Loader.Source, len(cat.Items), len(cat.PowerUps))
	return true, nil
}

// PollCatalog syncs every pollInterval until ctx is cancelled.
func PollCatalog(ctx context.Context, client *CatalogSyncClient, pollInterval time.Duration) {
	log.Printf("Starting catalog polling from %s every %s...", client.Loader.Source, pollInterval)

	ticker := client.Clock.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Catalog polling stopped.")
			return
		case <-ticker.Chan():
			if _, err := client.Sync(ctx); err != nil {
				log.Printf("❌ Error polling catalog: %v", err)
			}
		}
	}
}
