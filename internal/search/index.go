// Package search answers substring queries over the corpus full text.
package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/magazine-archive/magscan/internal/corpus"
)

// Result is one page matching a query.
type Result struct {
	Filename  string `json:"filename"`
	PageIndex int    `json:"page_index"`
	Matches   int    `json:"matches"`
}

type entry struct {
	source    string
	lowerText string
}

// Index is a derived, read-only view over the corpus: the lowercased full
// text of every page. It rebuilds itself lazily whenever the corpus version
// moves, so a rebuild costs one linear pass over the corpus text.
type Index struct {
	corpus *corpus.Corpus

	mu      sync.Mutex
	built   bool
	version uint64
	entries []entry
}

func NewIndex(c *corpus.Corpus) *Index {
	return &Index{corpus: c}
}

// Search matches the query case-insensitively as a literal substring
// against each page's full text. Matches are counted non-overlapping, left
// to right. Pages without matches are excluded; results are ordered by
// match count descending with ties broken by page order. An empty or
// whitespace-only query matches nothing.
func (idx *Index) Search(query string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}
	}

	var results []Result
	for i, e := range idx.snapshot() {
		matches := strings.Count(e.lowerText, q)
		if matches == 0 {
			continue
		}
		results = append(results, Result{
			Filename:  e.source,
			PageIndex: i,
			Matches:   matches,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Matches > results[j].Matches
	})
	if results == nil {
		results = []Result{}
	}
	return results
}

func (idx *Index) snapshot() []entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if version := idx.corpus.Version(); !idx.built || version != idx.version {
		records := idx.corpus.Snapshot()
		idx.entries = make([]entry, 0, len(records))
		for _, record := range records {
			idx.entries = append(idx.entries, entry{
				source:    record.Source,
				lowerText: strings.ToLower(record.FullText),
			})
		}
		idx.built = true
		idx.version = version
	}
	return idx.entries
}
