package search_test

import (
	"reflect"
	"testing"

	"github.com/magazine-archive/magscan/internal/corpus"
	"github.com/magazine-archive/magscan/internal/models"
	"github.com/magazine-archive/magscan/internal/search"
)

func pageWithText(source, text string) models.PageRecord {
	record := models.PageRecord{
		Source:      source,
		ImageWidth:  100,
		ImageHeight: 100,
		Method:      models.MethodOpenAIVision,
		Regions: []models.TextRegion{
			{Text: text, Point: &models.PercentPoint{XPercent: 1, YPercent: 1}, Type: models.TypeContent, Size: models.SizeSmall},
		},
	}
	record.RecomputeDerived()
	return record
}

func buildCorpus(t *testing.T, pages map[string]string, order []string) *corpus.Corpus {
	t.Helper()
	c := corpus.New()
	for _, source := range order {
		if err := c.Add(pageWithText(source, pages[source])); err != nil {
			t.Fatalf("Failed to add %s: %v", source, err)
		}
	}
	return c
}

func TestSearchOrdersByMatchCount(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "the cat sat",
		"b.png": "the the dog",
	}, []string{"a.png", "b.png"})
	index := search.NewIndex(c)

	results := index.Search("the")
	want := []search.Result{
		{Filename: "b.png", PageIndex: 1, Matches: 2},
		{Filename: "a.png", PageIndex: 0, Matches: 1},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Expected %v, got %v", want, results)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "The Cat sat on THE mat",
	}, []string{"a.png"})
	index := search.NewIndex(c)

	lower := index.Search("the")
	upper := index.Search("THE")
	if !reflect.DeepEqual(lower, upper) {
		t.Errorf("Expected identical results for 'the' and 'THE', got %v and %v", lower, upper)
	}
	if len(lower) != 1 || lower[0].Matches != 2 {
		t.Errorf("Expected 2 matches on page a.png, got %v", lower)
	}
}

func TestSearchNonOverlappingCount(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "aaaa",
	}, []string{"a.png"})
	index := search.NewIndex(c)

	results := index.Search("aa")
	if len(results) != 1 || results[0].Matches != 2 {
		t.Errorf("Expected 2 non-overlapping matches, got %v", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "anything at all",
	}, []string{"a.png"})
	index := search.NewIndex(c)

	for _, q := range []string{"", "   ", "\t\n"} {
		results := index.Search(q)
		if len(results) != 0 {
			t.Errorf("Expected empty results for query %q, got %v", q, results)
		}
	}
}

func TestSearchExcludesZeroMatchPages(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "gnome sale",
		"b.png": "nothing relevant",
	}, []string{"a.png", "b.png"})
	index := search.NewIndex(c)

	results := index.Search("gnome")
	if len(results) != 1 || results[0].Filename != "a.png" {
		t.Errorf("Expected only a.png, got %v", results)
	}
}

func TestSearchTiesKeepCorpusOrder(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"z_first.png":  "satire here",
		"a_second.png": "satire there",
	}, []string{"z_first.png", "a_second.png"})
	index := search.NewIndex(c)

	results := index.Search("satire")
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Filename != "z_first.png" || results[1].Filename != "a_second.png" {
		t.Errorf("Expected tie broken by corpus order, got %v", results)
	}
}

func TestSearchSeesReplacedRecords(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.png": "old words",
	}, []string{"a.png"})
	index := search.NewIndex(c)

	if results := index.Search("old"); len(results) != 1 {
		t.Fatalf("Expected 1 result before replace, got %v", results)
	}

	c.Replace(pageWithText("a.png", "new words"))

	if results := index.Search("old"); len(results) != 0 {
		t.Errorf("Expected no results for 'old' after replace, got %v", results)
	}
	if results := index.Search("new"); len(results) != 1 {
		t.Errorf("Expected 1 result for 'new' after replace, got %v", results)
	}
}
