// Package geometry converts between absolute pixel boxes and
// percentage-of-image coordinates. Both conversions are pure functions.
package geometry

import (
	"errors"
	"fmt"

	"github.com/magazine-archive/magscan/internal/models"
)

// ErrInvalidGeometry is returned when image dimensions are not positive.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ToPercent converts a box's top-left corner to percent-of-image
// coordinates. Results are clamped to [0,100]: providers round boxes
// slightly outside the image and display overlays tolerate the overflow,
// so out-of-range inputs are clamped rather than rejected.
func ToPercent(box models.AbsoluteBox, imageWidth, imageHeight int) (models.PercentPoint, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return models.PercentPoint{}, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidGeometry, imageWidth, imageHeight)
	}
	return models.PercentPoint{
		XPercent: clamp(float64(box.Left) / float64(imageWidth) * 100),
		YPercent: clamp(float64(box.Top) / float64(imageHeight) * 100),
	}, nil
}

// ToAbsolute converts a percent point back to pixel left/top offsets.
func ToAbsolute(pt models.PercentPoint, imageWidth, imageHeight int) (left, top float64, err error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidGeometry, imageWidth, imageHeight)
	}
	left = clamp(pt.XPercent) / 100 * float64(imageWidth)
	top = clamp(pt.YPercent) / 100 * float64(imageHeight)
	return left, top, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
