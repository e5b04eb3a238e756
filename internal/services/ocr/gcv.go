package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/magazine-archive/magscan/internal/utils"
)

// GCVProvider detects words with Google Cloud Vision document text
// detection. Credentials come from the ambient Google application default
// credentials.
type GCVProvider struct{}

func NewGCV() *GCVProvider { return &GCVProvider{} }

func (g *GCVProvider) Name() string { return "google_cloud_vision" }

func (g *GCVProvider) DetectWords(ctx context.Context, imagePath string) (Detection, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return Detection{}, failure(g.Name(), fmt.Errorf("failed to create client: %w", err))
	}
	defer client.Close()

	f, err := os.Open(imagePath)
	if err != nil {
		return Detection{}, failure(g.Name(), err)
	}
	defer f.Close()

	image, err := vision.NewImageFromReader(f)
	if err != nil {
		return Detection{}, failure(g.Name(), err)
	}

	annotation, err := client.DetectDocumentText(ctx, image, nil)
	if err != nil {
		return Detection{}, failure(g.Name(), err)
	}

	width, height, err := utils.ImageDimensions(imagePath)
	if err != nil {
		return Detection{}, failure(g.Name(), fmt.Errorf("failed to read image: %w", err))
	}

	detection := Detection{ImageWidth: width, ImageHeight: height}
	if annotation == nil || len(annotation.Pages) == 0 {
		// No text found is a successful empty result, not an error.
		return detection, nil
	}

	page := annotation.Pages[0]
	if page.Width > 0 && page.Height > 0 {
		detection.ImageWidth = int(page.Width)
		detection.ImageHeight = int(page.Height)
	}

	for blockIdx, block := range page.Blocks {
		for parIdx, paragraph := range block.Paragraphs {
			lineNum := 1
			wordNum := 0
			for _, word := range paragraph.Words {
				wordNum++
				text, lineBreak := wordText(word)
				detection.Words = append(detection.Words, Word{
					Text:       text,
					Confidence: float64(word.Confidence) * 100,
					Left:       polyLeft(word.BoundingBox),
					Top:        polyTop(word.BoundingBox),
					Width:      polyWidth(word.BoundingBox),
					Height:     polyHeight(word.BoundingBox),
					BlockNum:   blockIdx + 1,
					ParNum:     parIdx + 1,
					LineNum:    lineNum,
					WordNum:    wordNum,
				})
				if lineBreak {
					lineNum++
					wordNum = 0
				}
			}
		}
	}

	slog.Info("Cloud Vision detection complete", "image", imagePath, "words", len(detection.Words))
	return detection, nil
}

// wordText joins a word's symbols and reports whether the word ends its
// line, per the symbol-level detected breaks.
func wordText(word *visionpb.Word) (string, bool) {
	var b strings.Builder
	lineBreak := false
	for _, symbol := range word.Symbols {
		b.WriteString(symbol.Text)
		if symbol.Property != nil && symbol.Property.DetectedBreak != nil {
			switch symbol.Property.DetectedBreak.Type {
			case visionpb.TextAnnotation_DetectedBreak_LINE_BREAK,
				visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE:
				lineBreak = true
			}
		}
	}
	return b.String(), lineBreak
}

func polyLeft(poly *visionpb.BoundingPoly) int {
	left, _, _, _ := polyBounds(poly)
	return left
}

func polyTop(poly *visionpb.BoundingPoly) int {
	_, top, _, _ := polyBounds(poly)
	return top
}

func polyWidth(poly *visionpb.BoundingPoly) int {
	left, _, right, _ := polyBounds(poly)
	return right - left
}

func polyHeight(poly *visionpb.BoundingPoly) int {
	_, top, _, bottom := polyBounds(poly)
	return bottom - top
}

func polyBounds(poly *visionpb.BoundingPoly) (left, top, right, bottom int) {
	if poly == nil || len(poly.Vertices) == 0 {
		return 0, 0, 0, 0
	}
	left, top = int(poly.Vertices[0].X), int(poly.Vertices[0].Y)
	right, bottom = left, top
	for _, v := range poly.Vertices {
		x, y := int(v.X), int(v.Y)
		if x < left {
			left = x
		}
		if y < top {
			top = y
		}
		if x > right {
			right = x
		}
		if y > bottom {
			bottom = y
		}
	}
	return left, top, right, bottom
}
