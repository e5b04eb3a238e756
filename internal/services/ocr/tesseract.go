package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/magazine-archive/magscan/internal/utils"
	"github.com/magazine-archive/magscan/pkg/hocr/parser"
)

// TesseractProvider runs local Tesseract OCR and parses its hOCR output
// into positioned words.
type TesseractProvider struct {
	Language string
}

func NewTesseract(language string) *TesseractProvider {
	if language == "" {
		language = "eng"
	}
	return &TesseractProvider{Language: language}
}

func (t *TesseractProvider) Name() string { return "tesseract" }

func (t *TesseractProvider) DetectWords(ctx context.Context, imagePath string) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, failure(t.Name(), err)
	}

	width, height, err := utils.ImageDimensions(imagePath)
	if err != nil {
		return Detection{}, failure(t.Name(), fmt.Errorf("failed to read image: %w", err))
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return Detection{}, failure(t.Name(), fmt.Errorf("failed to set language: %w", err))
	}
	// PSM 3 (fully automatic page segmentation) handles magazine layouts best.
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return Detection{}, failure(t.Name(), fmt.Errorf("failed to set page segmentation mode: %w", err))
	}
	if err := client.SetImage(imagePath); err != nil {
		return Detection{}, failure(t.Name(), fmt.Errorf("failed to set image: %w", err))
	}

	hocr, err := client.HOCRText()
	if err != nil {
		return Detection{}, failure(t.Name(), fmt.Errorf("OCR failed: %w", err))
	}

	words, err := parser.ParseWords(hocr)
	if err != nil {
		return Detection{}, failure(t.Name(), err)
	}

	detection := Detection{ImageWidth: width, ImageHeight: height}
	for _, w := range words {
		detection.Words = append(detection.Words, Word{
			Text:       w.Text,
			Confidence: w.Confidence,
			Left:       w.BBox.X1,
			Top:        w.BBox.Y1,
			Width:      w.BBox.X2 - w.BBox.X1,
			Height:     w.BBox.Y2 - w.BBox.Y1,
			BlockNum:   w.BlockNum,
			ParNum:     w.ParNum,
			LineNum:    w.LineNum,
			WordNum:    w.WordNum,
		})
	}

	slog.Info("Tesseract detection complete", "image", imagePath, "words", len(detection.Words))
	return detection, nil
}
