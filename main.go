package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/magazine-archive/magscan/internal/config"
	"github.com/magazine-archive/magscan/internal/corpus"
	"github.com/magazine-archive/magscan/internal/handlers"
	"github.com/magazine-archive/magscan/internal/search"
	"github.com/magazine-archive/magscan/internal/services/extract"
	"github.com/magazine-archive/magscan/internal/services/ocr"
	"github.com/magazine-archive/magscan/internal/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("Error loading .env file", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		utils.ExitOnError("Failed to load config", err)
	}

	reprocess := flag.Bool("reprocess", false, "force re-extraction of cached pages")
	cacheOnly := flag.Bool("cache-only", false, "serve existing results without extracting")
	page := flag.String("page", "", "only process pages whose filename contains this substring")
	exportPath := flag.String("export", "", "write the corpus as a single JSON document to this path")
	importPath := flag.String("import", "", "load the corpus from a JSON document instead of the store")
	flag.Parse()

	store, err := corpus.OpenStore(cfg.StorePath)
	if err != nil {
		utils.ExitOnError("Failed to open corpus store", err)
	}
	defer store.Close()

	var c *corpus.Corpus
	if *importPath != "" {
		c, err = corpus.ImportJSON(*importPath)
		if err != nil {
			utils.ExitOnError("Failed to import corpus document", err)
		}
		for _, record := range c.Snapshot() {
			if err := store.SavePage(record); err != nil {
				utils.ExitOnError("Failed to persist imported page", err)
			}
		}
		slog.Info("Imported corpus document", "path", *importPath, "pages", c.Len())
	} else {
		c, err = store.Load()
		if err != nil {
			utils.ExitOnError("Failed to load corpus", err)
		}
		slog.Info("Loaded corpus", "pages", c.Len())
	}

	if !*cacheOnly {
		runExtraction(cfg, c, store, extract.RunOptions{
			Reprocess: *reprocess,
			Match:     *page,
			Workers:   cfg.Workers,
		})
	}

	if *exportPath != "" {
		if err := corpus.ExportJSON(c, *exportPath); err != nil {
			utils.ExitOnError("Failed to export corpus document", err)
		}
		slog.Info("Exported corpus document", "path", *exportPath, "pages", c.Len())
	}

	if c.Len() == 0 {
		slog.Warn("Corpus is empty, viewer has nothing to show")
	}

	handler := handlers.New(c, search.NewIndex(c), cfg.ImageDir)

	http.HandleFunc("/api/search", handler.HandleSearch)
	http.HandleFunc("/api/pages", handler.HandlePages)
	http.HandleFunc("/api/pages/", handler.HandlePageDetail)
	http.HandleFunc("/images/", handler.HandleImages)
	http.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("OK"))
		if err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
			os.Exit(1)
		}
	})

	slog.Info("Magazine archive API available", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		utils.ExitOnError("Server failed to start", err)
	}
}

func runExtraction(cfg *config.Config, c *corpus.Corpus, store *corpus.Store, opts extract.RunOptions) {
	var analytical ocr.AnalyticalProvider
	if cfg.UseGCV {
		slog.Info("Using Google Cloud Vision for analytical OCR")
		analytical = ocr.NewGCV()
	} else {
		slog.Info("Using Tesseract for analytical OCR", "lang", cfg.TesseractLang)
		analytical = ocr.NewTesseract(cfg.TesseractLang)
	}

	vision := ocr.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
	vision.Client = &http.Client{Timeout: cfg.ProviderTimeout}

	selector := &extract.Selector{
		Vision:        vision,
		Analytical:    analytical,
		MinConfidence: cfg.MinConfidence,
		Timeout:       cfg.ProviderTimeout,
		VisionFirst:   cfg.VisionFirst,
	}

	report, err := selector.ProcessDir(context.Background(), cfg.ImageDir, c, opts)
	if err != nil {
		if c.Len() == 0 {
			utils.ExitOnError("Extraction produced no pages", err)
		}
		slog.Warn("Extraction run did not complete", "err", err)
		return
	}

	for _, source := range append(report.Succeeded, report.FellBack...) {
		record, ok := c.Get(source)
		if !ok {
			continue
		}
		if err := store.SavePage(record); err != nil {
			utils.ExitOnError("Failed to persist page", err)
		}
	}
	for source, cause := range report.Failed {
		slog.Error("Page extraction failed", "run_id", report.RunID, "source", source, "cause", cause)
	}
}
