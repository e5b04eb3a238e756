// Package ocr holds the text-detection provider boundary: word-level
// analytical providers returning absolute pixel boxes, and holistic vision
// providers returning semantically typed elements with percent positions.
package ocr

import (
	"context"
	"fmt"
)

// Word is one raw analytical detection: absolute pixel box, 0-100
// confidence, and the provider's block/paragraph/line/word numbering.
type Word struct {
	Text       string
	Confidence float64
	Left       int
	Top        int
	Width      int
	Height     int
	BlockNum   int
	ParNum     int
	LineNum    int
	WordNum    int
}

// Detection is a full analytical provider result for one image.
type Detection struct {
	Words       []Word
	ImageWidth  int
	ImageHeight int
}

// Element is one raw vision detection. Size and Type are free-text labels
// as returned by the provider; normalization happens in the adapter.
type Element struct {
	Text     string  `json:"text"`
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`
	Size     string  `json:"size"`
	Type     string  `json:"type"`
}

// AnalyticalProvider detects words with absolute boxes. An empty Detection
// with a nil error means the image genuinely contains no text.
type AnalyticalProvider interface {
	Name() string
	DetectWords(ctx context.Context, imagePath string) (Detection, error)
}

// VisionProvider extracts semantically typed text elements. An empty slice
// with a nil error means no text was found.
type VisionProvider interface {
	Name() string
	DetectElements(ctx context.Context, imagePath string) ([]Element, error)
}

// ProviderError wraps any provider-level failure (I/O, auth, rate limit,
// timeout, malformed response) so callers can distinguish it from bad input.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func failure(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}
