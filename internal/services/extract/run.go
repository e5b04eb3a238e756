package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/magazine-archive/magscan/internal/corpus"
	"github.com/magazine-archive/magscan/internal/models"
)

// RunOptions control one batch extraction over an image directory.
type RunOptions struct {
	// Reprocess replaces records that already exist in the corpus; otherwise
	// cached pages are skipped.
	Reprocess bool
	// Match restricts the run to filenames containing the substring.
	Match string
	// Workers bounds concurrent page extraction. Defaults to 4.
	Workers int
}

// Report summarizes one extraction run. Per-image failures are recorded
// here rather than aborting the run.
type Report struct {
	RunID     string            `json:"run_id"`
	Succeeded []string          `json:"succeeded"`
	FellBack  []string          `json:"fell_back"`
	Skipped   []string          `json:"skipped"`
	Failed    map[string]string `json:"failed"`
}

// ProcessDir extracts every PNG in dir (sorted order = page order) and
// appends the results to the corpus. Pages are processed concurrently but
// appended in page order, so corpus insertion order stays stable.
func (s *Selector) ProcessDir(ctx context.Context, dir string, c *corpus.Corpus, opts RunOptions) (Report, error) {
	report := Report{
		RunID:  uuid.NewString(),
		Failed: make(map[string]string),
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return report, fmt.Errorf("failed to list images in %s: %w", dir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return report, fmt.Errorf("no PNG files found in %s", dir)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	type job struct {
		path  string
		cover bool
		skip  bool
	}
	jobs := make([]job, len(paths))
	for i, path := range paths {
		source := filepath.Base(path)
		if opts.Match != "" && !strings.Contains(source, opts.Match) {
			jobs[i].skip = true
			continue
		}
		if _, ok := c.Get(source); ok && !opts.Reprocess {
			jobs[i].skip = true
			report.Skipped = append(report.Skipped, source)
			continue
		}
		jobs[i] = job{path: path, cover: i == 0 || IsCoverPage(source)}
	}

	records := make([]*models.PageRecord, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, j := range jobs {
		if j.skip {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j job) {
			defer wg.Done()
			defer func() { <-sem }()
			record, err := s.Process(ctx, j.path, j.cover)
			if err != nil {
				errs[i] = err
				return
			}
			records[i] = &record
		}(i, j)
	}
	wg.Wait()

	// Append sequentially in page order so insertion order is deterministic.
	for i := range paths {
		source := filepath.Base(paths[i])
		switch {
		case errs[i] != nil:
			report.Failed[source] = errs[i].Error()
		case records[i] != nil:
			if opts.Reprocess {
				c.Replace(*records[i])
			} else if err := c.Add(*records[i]); err != nil {
				report.Failed[source] = err.Error()
				continue
			}
			if records[i].Method == models.MethodAnalyticalFallback {
				report.FellBack = append(report.FellBack, source)
			} else {
				report.Succeeded = append(report.Succeeded, source)
			}
		}
	}

	slog.Info("Extraction run complete",
		"run_id", report.RunID,
		"succeeded", len(report.Succeeded),
		"fell_back", len(report.FellBack),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))
	return report, nil
}
