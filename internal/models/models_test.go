package models_test

import (
	"testing"

	"github.com/magazine-archive/magscan/internal/models"
)

func analyticalRegion(text string, block, par, line, word int) models.TextRegion {
	conf := 90.0
	return models.TextRegion{
		Text:       text,
		Box:        &models.AbsoluteBox{Left: 10, Top: 10, Width: 40, Height: 15},
		Confidence: &conf,
		Structure:  &models.WordStructure{BlockNum: block, ParNum: par, LineNum: line, WordNum: word},
	}
}

func TestJoinFullTextAnalytical(t *testing.T) {
	regions := []models.TextRegion{
		analyticalRegion("Dear", 1, 1, 1, 1),
		analyticalRegion("Sir", 1, 1, 1, 2),
		analyticalRegion("ALS", 1, 1, 2, 1),
		analyticalRegion("GNOME", 2, 1, 1, 1),
	}

	got := models.JoinFullText(regions)
	want := "Dear Sir\nALS\nGNOME"
	if got != want {
		t.Errorf("Expected full text %q, got %q", want, got)
	}
}

func TestJoinFullTextVision(t *testing.T) {
	regions := []models.TextRegion{
		{Text: "PRIVATE EYE", Point: &models.PercentPoint{XPercent: 50, YPercent: 15}, Type: models.TypeMasthead, Size: models.SizeLarge},
		{Text: "45p", Point: &models.PercentPoint{XPercent: 90, YPercent: 5}, Type: models.TypePrice, Size: models.SizeSmall},
	}

	got := models.JoinFullText(regions)
	want := "PRIVATE EYE\n45p"
	if got != want {
		t.Errorf("Expected full text %q, got %q", want, got)
	}
}

func TestRecomputeDerived(t *testing.T) {
	record := models.PageRecord{
		Source: "001.png",
		Method: models.MethodAnalyticalOCR,
		Regions: []models.TextRegion{
			analyticalRegion("the", 1, 1, 1, 1),
			analyticalRegion("cat", 1, 1, 1, 2),
		},
		// Stale derived values that must be overwritten.
		FullText:   "wrong",
		WordCount:  99,
		TotalTexts: 99,
	}

	record.RecomputeDerived()

	if record.WordCount != 2 || record.TotalTexts != 2 {
		t.Errorf("Expected derived counts 2/2, got %d/%d", record.WordCount, record.TotalTexts)
	}
	if record.FullText != "the cat" {
		t.Errorf("Expected full text 'the cat', got %q", record.FullText)
	}
}

func TestMethodValid(t *testing.T) {
	for _, m := range []models.Method{models.MethodAnalyticalOCR, models.MethodOpenAIVision, models.MethodAnalyticalFallback} {
		if !m.Valid() {
			t.Errorf("Expected method %q to be valid", m)
		}
	}
	if models.Method("tesseract").Valid() {
		t.Error("Expected unknown method to be invalid")
	}
}

func TestNormalizeSemanticType(t *testing.T) {
	tests := []struct {
		in   string
		want models.SemanticType
	}{
		{"masthead", models.TypeMasthead},
		{"HEADLINE", models.TypeHeadline},
		{" speech_bubble ", models.TypeSpeechBubble},
		{"price", models.TypePrice},
		{"banner_ad", models.TypeOther},
		{"", models.TypeOther},
	}
	for _, tc := range tests {
		if got := models.NormalizeSemanticType(tc.in); got != tc.want {
			t.Errorf("NormalizeSemanticType(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestSizeForHeight(t *testing.T) {
	tests := []struct {
		px   int
		want models.SizeClass
	}{
		{8, models.SizeSmall},
		{12, models.SizeSmall},
		{13, models.SizeMedium},
		{20, models.SizeMedium},
		{21, models.SizeLarge},
	}
	for _, tc := range tests {
		if got := models.SizeForHeight(tc.px); got != tc.want {
			t.Errorf("SizeForHeight(%d): expected %q, got %q", tc.px, tc.want, got)
		}
	}
}

func TestValidateRejectsBlankRegion(t *testing.T) {
	record := models.PageRecord{
		Source:  "001.png",
		Method:  models.MethodOpenAIVision,
		Regions: []models.TextRegion{{Text: "   "}},
	}
	if err := record.Validate(); err == nil {
		t.Error("Expected validation error for blank region text")
	}
}
