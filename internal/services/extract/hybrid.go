package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/magazine-archive/magscan/internal/models"
	"github.com/magazine-archive/magscan/internal/services/ocr"
	"github.com/magazine-archive/magscan/internal/utils"
)

// PageError is the terminal failure for one image: the vision path failed
// and so did the analytical fallback. Both causes are kept.
type PageError struct {
	Source        string
	VisionErr     error
	AnalyticalErr error
}

func (e *PageError) Error() string {
	if e.VisionErr == nil {
		return fmt.Sprintf("extraction failed for %s: %v", e.Source, e.AnalyticalErr)
	}
	return fmt.Sprintf("extraction failed for %s: vision: %v; analytical fallback: %v",
		e.Source, e.VisionErr, e.AnalyticalErr)
}

// Selector decides the extraction strategy per image and produces exactly
// one PageRecord, or a PageError. No regions from different adapters are
// ever mixed within one record.
type Selector struct {
	Vision        ocr.VisionProvider
	Analytical    ocr.AnalyticalProvider
	MinConfidence float64
	Timeout       time.Duration

	// VisionFirst sends every page down the vision-first path. When false,
	// only cover pages use vision and content pages go straight to the
	// analytical provider.
	VisionFirst bool
}

// IsCoverPage reports whether a filename looks like a magazine cover.
// The first page of a sorted archive is handled by the caller; this covers
// the naming conventions.
func IsCoverPage(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range []string{"cover", "front", "000"} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// Process extracts one image. cover selects the vision-first path; content
// pages use the analytical provider as primary, tagged analytical_ocr.
func (s *Selector) Process(ctx context.Context, imagePath string, cover bool) (models.PageRecord, error) {
	source := filepath.Base(imagePath)

	if !cover && !s.VisionFirst {
		det, err := s.detectWords(ctx, imagePath)
		if err != nil {
			return models.PageRecord{}, &PageError{Source: source, AnalyticalErr: err}
		}
		slog.Info("Extracted content page", "source", source, "method", models.MethodAnalyticalOCR, "regions", len(det.Words))
		return AnalyticalRecord(source, det, s.MinConfidence), nil
	}

	record, visionErr := s.visionRecord(ctx, imagePath, source)
	if visionErr == nil {
		slog.Info("Extracted page", "source", source, "method", models.MethodOpenAIVision, "regions", len(record.Regions))
		return record, nil
	}

	slog.Warn("Vision extraction failed, falling back to analytical OCR", "source", source, "err", visionErr)
	det, analyticalErr := s.detectWords(ctx, imagePath)
	if analyticalErr != nil {
		return models.PageRecord{}, &PageError{
			Source:        source,
			VisionErr:     visionErr,
			AnalyticalErr: analyticalErr,
		}
	}

	record = AnalyticalRecord(source, det, s.MinConfidence)
	record.Method = models.MethodAnalyticalFallback
	slog.Info("Extracted page", "source", source, "method", record.Method, "regions", len(record.Regions))
	return record, nil
}

func (s *Selector) visionRecord(ctx context.Context, imagePath, source string) (models.PageRecord, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	elements, err := s.Vision.DetectElements(ctx, imagePath)
	if err != nil {
		return models.PageRecord{}, err
	}
	width, height, err := utils.ImageDimensions(imagePath)
	if err != nil {
		return models.PageRecord{}, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	return VisionRecord(source, elements, width, height), nil
}

func (s *Selector) detectWords(ctx context.Context, imagePath string) (ocr.Detection, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.Analytical.DetectWords(ctx, imagePath)
}

func (s *Selector) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.Timeout)
}
