// Package extract turns raw provider output into normalized PageRecords and
// decides, per image, which extraction strategy to use.
package extract

import (
	"strings"

	"github.com/magazine-archive/magscan/internal/models"
	"github.com/magazine-archive/magscan/internal/services/ocr"
)

// AnalyticalRecord normalizes a word-level detection into a PageRecord.
// Words with blank text or confidence below minConfidence are dropped;
// provider order is preserved, since analytical providers already emit
// reading order.
func AnalyticalRecord(source string, det ocr.Detection, minConfidence float64) models.PageRecord {
	var regions []models.TextRegion
	for _, w := range det.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if w.Confidence < minConfidence {
			continue
		}
		conf := w.Confidence
		regions = append(regions, models.TextRegion{
			Text: text,
			Box: &models.AbsoluteBox{
				Left:   w.Left,
				Top:    w.Top,
				Width:  w.Width,
				Height: w.Height,
			},
			Confidence: &conf,
			Structure: &models.WordStructure{
				BlockNum: w.BlockNum,
				ParNum:   w.ParNum,
				LineNum:  w.LineNum,
				WordNum:  w.WordNum,
			},
		})
	}

	record := models.PageRecord{
		Source:      source,
		ImageWidth:  det.ImageWidth,
		ImageHeight: det.ImageHeight,
		Method:      models.MethodAnalyticalOCR,
		Regions:     regions,
	}
	record.RecomputeDerived()
	return record
}

// VisionRecord normalizes semantically typed vision elements into a
// PageRecord. Elements stay in provider order: vision providers do not
// guarantee reading order and no reordering is attempted. Unknown semantic
// type labels become "other". Image dimensions are carried through for
// display parity; the provider already returns percent coordinates.
func VisionRecord(source string, elements []ocr.Element, imageWidth, imageHeight int) models.PageRecord {
	var regions []models.TextRegion
	for _, e := range elements {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		regions = append(regions, models.TextRegion{
			Text: text,
			Point: &models.PercentPoint{
				XPercent: e.XPercent,
				YPercent: e.YPercent,
			},
			Type: models.NormalizeSemanticType(e.Type),
			Size: models.NormalizeSizeClass(e.Size),
		})
	}

	record := models.PageRecord{
		Source:      source,
		ImageWidth:  imageWidth,
		ImageHeight: imageHeight,
		Method:      models.MethodOpenAIVision,
		Regions:     regions,
	}
	record.RecomputeDerived()
	return record
}
