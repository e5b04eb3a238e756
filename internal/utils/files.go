package utils

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
)

// ImageDimensions reads the pixel dimensions from an image header without
// decoding the whole file.
func ImageDimensions(imagePath string) (int, int, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func RespondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{
		"error": message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

func ExitOnError(message string, err error) {
	slog.Error(message, "err", err)
	os.Exit(1)
}
