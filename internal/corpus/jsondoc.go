package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/magazine-archive/magscan/internal/models"
)

// ExportJSON writes the corpus as one JSON document: an array of PageRecords
// in page order, each keyed by its embedded source. An array rather than an
// object because JSON objects do not preserve key order.
func ExportJSON(c *Corpus, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus document: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode corpus document: %w", err)
	}
	return nil
}

// ImportJSON reads a corpus document written by ExportJSON. Derived fields
// are recomputed so a tampered or hand-edited document cannot carry stale
// counts.
func ImportJSON(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus document: %w", err)
	}
	defer f.Close()

	var records []models.PageRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode corpus document: %w", err)
	}

	c := New()
	for _, record := range records {
		record.RecomputeDerived()
		if err := c.Add(record); err != nil {
			return nil, err
		}
	}
	return c, nil
}
