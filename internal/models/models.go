package models

import (
	"fmt"
	"strings"
)

// Method identifies which extraction path actually produced a PageRecord.
type Method string

const (
	MethodAnalyticalOCR      Method = "analytical_ocr"
	MethodOpenAIVision       Method = "openai_vision"
	MethodAnalyticalFallback Method = "analytical_ocr_fallback"
)

func (m Method) Valid() bool {
	switch m {
	case MethodAnalyticalOCR, MethodOpenAIVision, MethodAnalyticalFallback:
		return true
	}
	return false
}

// SemanticType labels what kind of text a vision-extracted region is.
type SemanticType string

const (
	TypeMasthead     SemanticType = "masthead"
	TypeHeadline     SemanticType = "headline"
	TypeSpeechBubble SemanticType = "speech_bubble"
	TypeCaption      SemanticType = "caption"
	TypePrice        SemanticType = "price"
	TypeDate         SemanticType = "date"
	TypeContent      SemanticType = "content"
	TypeOther        SemanticType = "other"
)

// NormalizeSemanticType maps a provider-supplied label onto the closed
// enumeration. Providers invent free-text labels from time to time; anything
// unrecognized becomes "other" rather than failing the page.
func NormalizeSemanticType(label string) SemanticType {
	switch SemanticType(strings.ToLower(strings.TrimSpace(label))) {
	case TypeMasthead:
		return TypeMasthead
	case TypeHeadline:
		return TypeHeadline
	case TypeSpeechBubble:
		return TypeSpeechBubble
	case TypeCaption:
		return TypeCaption
	case TypePrice:
		return TypePrice
	case TypeDate:
		return TypeDate
	case TypeContent:
		return TypeContent
	default:
		return TypeOther
	}
}

// SizeClass is the coarse display size of a text element.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

func NormalizeSizeClass(label string) SizeClass {
	switch SizeClass(strings.ToLower(strings.TrimSpace(label))) {
	case SizeLarge:
		return SizeLarge
	case SizeMedium:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// SizeForHeight classifies a word by its box height in pixels, so analytical
// overlays render at a size comparable to vision elements.
func SizeForHeight(px int) SizeClass {
	switch {
	case px > 20:
		return SizeLarge
	case px > 12:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// AbsoluteBox is a pixel-space bounding box, origin top-left.
type AbsoluteBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PercentPoint is a position normalized to the image, 0-100 on both axes.
type PercentPoint struct {
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`
}

// WordStructure is the analytical provider's reading-order hierarchy.
type WordStructure struct {
	BlockNum int `json:"block_num"`
	ParNum   int `json:"par_num"`
	LineNum  int `json:"line_num"`
	WordNum  int `json:"word_num"`
}

// TextRegion is one detected text unit. Exactly one of Box or Point is set:
// analytical regions carry an absolute box plus confidence and structure,
// vision regions carry a percent point plus semantic type and size.
type TextRegion struct {
	Text       string         `json:"text"`
	Box        *AbsoluteBox   `json:"box,omitempty"`
	Point      *PercentPoint  `json:"point,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Type       SemanticType   `json:"type,omitempty"`
	Size       SizeClass      `json:"size,omitempty"`
	Structure  *WordStructure `json:"structure,omitempty"`
}

// PageRecord is the full extraction result for one source image.
// FullText, WordCount and TotalTexts are derived from Regions; callers that
// decode a record from storage must run RecomputeDerived before using them.
type PageRecord struct {
	Source      string       `json:"source"`
	ImageWidth  int          `json:"image_width"`
	ImageHeight int          `json:"image_height"`
	Method      Method       `json:"method"`
	Regions     []TextRegion `json:"regions"`
	FullText    string       `json:"full_text"`
	WordCount   int          `json:"word_count"`
	TotalTexts  int          `json:"total_texts"`
}

// JoinFullText derives the searchable page text from regions. Analytical
// words on the same block/paragraph/line are joined with spaces and a
// newline starts whenever the line changes; vision regions are one element
// per line in provider order.
func JoinFullText(regions []TextRegion) string {
	var b strings.Builder
	var prev *WordStructure
	for i, r := range regions {
		if i > 0 {
			if r.Structure != nil && prev != nil && sameLine(*r.Structure, *prev) {
				b.WriteByte(' ')
			} else {
				b.WriteByte('\n')
			}
		}
		b.WriteString(r.Text)
		prev = r.Structure
	}
	return b.String()
}

func sameLine(a, b WordStructure) bool {
	return a.BlockNum == b.BlockNum && a.ParNum == b.ParNum && a.LineNum == b.LineNum
}

// RecomputeDerived restores the derived fields from Regions.
func (p *PageRecord) RecomputeDerived() {
	p.FullText = JoinFullText(p.Regions)
	p.WordCount = len(p.Regions)
	p.TotalTexts = len(p.Regions)
}

// Validate checks the invariants a stored record must hold.
func (p *PageRecord) Validate() error {
	if p.Source == "" {
		return fmt.Errorf("page record missing source")
	}
	if !p.Method.Valid() {
		return fmt.Errorf("page record %s: unknown method %q", p.Source, p.Method)
	}
	for i, r := range p.Regions {
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("page record %s: region %d has blank text", p.Source, i)
		}
	}
	return nil
}
