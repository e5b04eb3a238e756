package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is read from the environment once at startup. Values with sensible
// defaults are optional; OPENAI_API_KEY is only required when the vision
// path is actually exercised.
type Config struct {
	Addr            string
	ImageDir        string
	StorePath       string
	OpenAIKey       string
	OpenAIModel     string
	TesseractLang   string
	MinConfidence   float64
	ProviderTimeout time.Duration
	Workers         int
	UseGCV          bool
	VisionFirst     bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("LISTEN_ADDR", ":8888"),
		ImageDir:        getEnv("IMAGE_DIR", "."),
		StorePath:       getEnv("CORPUS_DB", "data/corpus.db"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		TesseractLang:   getEnv("TESSERACT_LANG", "eng"),
		ProviderTimeout: 120 * time.Second,
		Workers:         4,
		UseGCV:          os.Getenv("GOOGLE_CLOUD_VISION_ENABLED") != "",
		VisionFirst:     os.Getenv("VISION_FIRST") != "",
	}

	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		minConf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MIN_CONFIDENCE %q: %w", v, err)
		}
		if minConf < 0 || minConf > 100 {
			return nil, fmt.Errorf("MIN_CONFIDENCE %v out of range [0,100]", minConf)
		}
		cfg.MinConfidence = minConf
	}

	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT %q: %w", v, err)
		}
		cfg.ProviderTimeout = timeout
	}

	if v := os.Getenv("EXTRACT_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil || workers <= 0 {
			return nil, fmt.Errorf("invalid EXTRACT_WORKERS %q", v)
		}
		cfg.Workers = workers
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
