// Package handlers is the JSON surface the viewer consumes. It only reads
// the corpus and the search index; extraction happens before the server
// starts taking requests.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/magazine-archive/magscan/internal/corpus"
	"github.com/magazine-archive/magscan/internal/geometry"
	"github.com/magazine-archive/magscan/internal/models"
	"github.com/magazine-archive/magscan/internal/search"
	"github.com/magazine-archive/magscan/internal/utils"
)

type Handler struct {
	corpus   *corpus.Corpus
	index    *search.Index
	imageDir string
}

func New(c *corpus.Corpus, index *search.Index, imageDir string) *Handler {
	return &Handler{corpus: c, index: index, imageDir: imageDir}
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results := h.index.Search(r.URL.Query().Get("q"))
	writeJSON(w, results)
}

// PageSummary is one row in the page listing.
type PageSummary struct {
	Filename   string        `json:"filename"`
	PageIndex  int           `json:"page_index"`
	Method     models.Method `json:"method"`
	TotalTexts int           `json:"total_texts"`
}

func (h *Handler) HandlePages(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records := h.corpus.Snapshot()
	summaries := make([]PageSummary, 0, len(records))
	for i, record := range records {
		summaries = append(summaries, PageSummary{
			Filename:   record.Source,
			PageIndex:  i,
			Method:     record.Method,
			TotalTexts: record.TotalTexts,
		})
	}
	writeJSON(w, summaries)
}

// AnalyticalWordView is one analytical region shaped for the overlay UI:
// the absolute box plus a derived percent position and size class so both
// extraction methods render the same way.
type AnalyticalWordView struct {
	Text       string               `json:"text"`
	Confidence float64              `json:"confidence"`
	Box        models.AbsoluteBox   `json:"box"`
	Structure  models.WordStructure `json:"structure"`
	XPercent   float64              `json:"x_percent"`
	YPercent   float64              `json:"y_percent"`
	Size       models.SizeClass     `json:"size"`
}

// VisionElementView is one vision region as the overlay UI consumes it.
type VisionElementView struct {
	Text     string             `json:"text"`
	XPercent float64            `json:"x_percent"`
	YPercent float64            `json:"y_percent"`
	Size     models.SizeClass   `json:"size"`
	Type     models.SemanticType `json:"type"`
}

// PageDetail is the per-method projection of one PageRecord. Exactly one of
// Words or Elements is populated.
type PageDetail struct {
	Filename    string               `json:"filename"`
	PageIndex   int                  `json:"page_index"`
	Method      models.Method        `json:"method"`
	ImageWidth  int                  `json:"image_width"`
	ImageHeight int                  `json:"image_height"`
	TotalTexts  int                  `json:"total_texts"`
	FullText    string               `json:"full_text"`
	Words       []AnalyticalWordView `json:"words,omitempty"`
	Elements    []VisionElementView  `json:"elements,omitempty"`
}

func (h *Handler) HandlePageDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	if source == "" {
		h.HandlePages(w, r)
		return
	}

	record, ok := h.corpus.Get(source)
	if !ok {
		// The viewer renders its "no data available" state from this.
		utils.RespondWithError(w, "No data available for this page", http.StatusNotFound)
		return
	}
	pageIndex, _ := h.corpus.IndexOf(source)

	detail := PageDetail{
		Filename:    record.Source,
		PageIndex:   pageIndex,
		Method:      record.Method,
		ImageWidth:  record.ImageWidth,
		ImageHeight: record.ImageHeight,
		TotalTexts:  record.TotalTexts,
		FullText:    record.FullText,
	}

	switch record.Method {
	case models.MethodOpenAIVision:
		for _, region := range record.Regions {
			if region.Point == nil {
				continue
			}
			detail.Elements = append(detail.Elements, VisionElementView{
				Text:     region.Text,
				XPercent: region.Point.XPercent,
				YPercent: region.Point.YPercent,
				Size:     region.Size,
				Type:     region.Type,
			})
		}
	case models.MethodAnalyticalOCR, models.MethodAnalyticalFallback:
		for _, region := range record.Regions {
			if region.Box == nil {
				continue
			}
			view := AnalyticalWordView{
				Text: region.Text,
				Box:  *region.Box,
				Size: models.SizeForHeight(region.Box.Height),
			}
			if region.Confidence != nil {
				view.Confidence = *region.Confidence
			}
			if region.Structure != nil {
				view.Structure = *region.Structure
			}
			if pt, err := geometry.ToPercent(*region.Box, record.ImageWidth, record.ImageHeight); err == nil {
				view.XPercent = pt.XPercent
				view.YPercent = pt.YPercent
			}
			detail.Words = append(detail.Words, view)
		}
	}

	writeJSON(w, detail)
}

func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// filepath.Base strips any directory components from the request.
	filename := filepath.Base(strings.TrimPrefix(r.URL.Path, "/images/"))
	if filename == "." || filename == "/" {
		utils.RespondWithError(w, "Image not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.imageDir, filename))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
