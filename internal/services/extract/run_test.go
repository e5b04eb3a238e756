package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/magazine-archive/magscan/internal/corpus"
	"github.com/magazine-archive/magscan/internal/models"
	"github.com/magazine-archive/magscan/internal/services/extract"
	"github.com/magazine-archive/magscan/internal/services/ocr"
)

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "000.png")
	writeTestPNG(t, dir, "033.png")
	writeTestPNG(t, dir, "050.png")

	vision := &fakeVision{elements: []ocr.Element{
		{Text: "PRIVATE EYE", XPercent: 50, YPercent: 15, Size: "large", Type: "masthead"},
	}}
	analytical := &fakeAnalytical{det: testDetection()}
	selector := &extract.Selector{Vision: vision, Analytical: analytical}

	c := corpus.New()
	report, err := selector.ProcessDir(context.Background(), dir, c, extract.RunOptions{Workers: 2})
	if err != nil {
		t.Fatalf("ProcessDir returned error: %v", err)
	}

	if report.RunID == "" {
		t.Error("Expected a run ID")
	}
	if len(report.Succeeded) != 3 || len(report.Failed) != 0 {
		t.Fatalf("Expected 3 succeeded and 0 failed, got %d/%d", len(report.Succeeded), len(report.Failed))
	}
	if c.Len() != 3 {
		t.Fatalf("Expected 3 corpus records, got %d", c.Len())
	}

	// Insertion order must follow sorted filename order regardless of
	// which worker finished first.
	records := c.Snapshot()
	wantOrder := []string{"000.png", "033.png", "050.png"}
	for i, want := range wantOrder {
		if records[i].Source != want {
			t.Errorf("Record %d: expected source %q, got %q", i, want, records[i].Source)
		}
	}

	// First page is the cover; the rest are content pages.
	if records[0].Method != models.MethodOpenAIVision {
		t.Errorf("Expected cover to use openai_vision, got %q", records[0].Method)
	}
	if records[1].Method != models.MethodAnalyticalOCR || records[2].Method != models.MethodAnalyticalOCR {
		t.Errorf("Expected content pages to use analytical_ocr, got %q and %q", records[1].Method, records[2].Method)
	}
}

func TestProcessDirSkipsCached(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "000.png")
	writeTestPNG(t, dir, "033.png")

	vision := &fakeVision{elements: []ocr.Element{{Text: "x", XPercent: 1, YPercent: 1}}}
	analytical := &fakeAnalytical{det: testDetection()}
	selector := &extract.Selector{Vision: vision, Analytical: analytical}

	c := corpus.New()
	cached := extract.AnalyticalRecord("000.png", testDetection(), 0)
	if err := c.Add(cached); err != nil {
		t.Fatalf("Failed to seed corpus: %v", err)
	}

	report, err := selector.ProcessDir(context.Background(), dir, c, extract.RunOptions{})
	if err != nil {
		t.Fatalf("ProcessDir returned error: %v", err)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "000.png" {
		t.Errorf("Expected 000.png skipped, got %v", report.Skipped)
	}
	if len(report.Succeeded) != 1 || report.Succeeded[0] != "033.png" {
		t.Errorf("Expected only 033.png processed, got %v", report.Succeeded)
	}
	if vision.calls != 0 {
		t.Errorf("Expected cached cover to not hit vision provider, got %d calls", vision.calls)
	}
}

func TestProcessDirReprocessReplaces(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "000.png")

	vision := &fakeVision{elements: []ocr.Element{{Text: "fresh", XPercent: 1, YPercent: 1, Size: "small", Type: "content"}}}
	analytical := &fakeAnalytical{det: testDetection()}
	selector := &extract.Selector{Vision: vision, Analytical: analytical}

	c := corpus.New()
	if err := c.Add(extract.AnalyticalRecord("000.png", testDetection(), 0)); err != nil {
		t.Fatalf("Failed to seed corpus: %v", err)
	}

	_, err := selector.ProcessDir(context.Background(), dir, c, extract.RunOptions{Reprocess: true})
	if err != nil {
		t.Fatalf("ProcessDir returned error: %v", err)
	}

	record, ok := c.Get("000.png")
	if !ok {
		t.Fatal("Expected record for 000.png")
	}
	if record.Method != models.MethodOpenAIVision || record.FullText != "fresh" {
		t.Errorf("Expected reprocessed vision record, got method %q text %q", record.Method, record.FullText)
	}
	if c.Len() != 1 {
		t.Errorf("Replace must not grow the corpus, got %d records", c.Len())
	}
}

func TestProcessDirRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "000.png")
	writeTestPNG(t, dir, "033.png")

	vision := &fakeVision{err: errors.New("quota exhausted")}
	analytical := &fakeAnalytical{err: errors.New("no tesseract")}
	selector := &extract.Selector{Vision: vision, Analytical: analytical}

	c := corpus.New()
	report, err := selector.ProcessDir(context.Background(), dir, c, extract.RunOptions{})
	if err != nil {
		t.Fatalf("ProcessDir returned error: %v", err)
	}

	if len(report.Failed) != 2 {
		t.Fatalf("Expected 2 failures, got %d", len(report.Failed))
	}
	if cause, ok := report.Failed["000.png"]; !ok || cause == "" {
		t.Errorf("Expected failure cause for 000.png, got %q", cause)
	}
	if c.Len() != 0 {
		t.Errorf("Failed pages must not produce records, corpus has %d", c.Len())
	}
}

func TestProcessDirEmptyDir(t *testing.T) {
	c := corpus.New()
	selector := &extract.Selector{Vision: &fakeVision{}, Analytical: &fakeAnalytical{}}
	if _, err := selector.ProcessDir(context.Background(), t.TempDir(), c, extract.RunOptions{}); err == nil {
		t.Error("Expected error for directory without PNG files")
	}
}
