// Package corpus holds the ordered collection of processed pages and its
// persistence. Insertion order is page order; sources are unique.
package corpus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/magazine-archive/magscan/internal/models"
)

// ErrKeyConflict is returned when adding a record whose source already
// exists. Overwriting requires an explicit Replace.
var ErrKeyConflict = errors.New("corpus key conflict")

// Corpus is an ordered set of PageRecords keyed by source. A single writer
// mutates it through Add/Replace while readers take consistent snapshots.
type Corpus struct {
	mu      sync.RWMutex
	records map[string]models.PageRecord
	order   []string
	version uint64
}

func New() *Corpus {
	return &Corpus{records: make(map[string]models.PageRecord)}
}

// Add appends a record. A record with the same source must be replaced
// explicitly, never silently overwritten.
func (c *Corpus) Add(record models.PageRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[record.Source]; exists {
		return fmt.Errorf("%w: %s", ErrKeyConflict, record.Source)
	}
	c.records[record.Source] = record
	c.order = append(c.order, record.Source)
	c.version++
	return nil
}

// Replace overwrites the record for a source, keeping its original position,
// or appends when the source is new.
func (c *Corpus) Replace(record models.PageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[record.Source]; !exists {
		c.order = append(c.order, record.Source)
	}
	c.records[record.Source] = record
	c.version++
}

func (c *Corpus) Get(source string) (models.PageRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[source]
	return record, ok
}

// IndexOf returns the page index of a source in corpus order.
func (c *Corpus) IndexOf(source string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, s := range c.order {
		if s == source {
			return i, true
		}
	}
	return 0, false
}

// Snapshot returns the records in page order. The slice is a copy; readers
// can hold it while the corpus keeps changing.
func (c *Corpus) Snapshot() []models.PageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := make([]models.PageRecord, 0, len(c.order))
	for _, source := range c.order {
		records = append(records, c.records[source])
	}
	return records
}

func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Version increases on every mutation; derived views use it to detect
// staleness.
func (c *Corpus) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
