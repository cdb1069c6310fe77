package imaging

import (
	"errors"
	"image"
	"log"
	"math"
)

// Stats holds per-invocation brightness/contrast statistics for an image.
//
// Stats are ephemeral: computed fresh for each analysis call and never
// persisted. Brightness is the mean pixel intensity and contrast the
// standard deviation, both on the 0-255 scale; for RGB images the three
// channel statistics are averaged.
type Stats struct {
	Brightness    float64 `json:"brightness"`
	Contrast      float64 `json:"contrast"`
	IsLowContrast bool    `json:"is_low_contrast"`
	IsHighNoise   bool    `json:"is_high_noise"`
}

// StatsAnalyzer classifies images by their intensity statistics.
//
// The classification thresholds are empirically chosen constants, exposed as
// configuration rather than derived from the image.
type StatsAnalyzer struct {
	// LowContrastBelow classifies images with contrast under this value as
	// low-contrast. Typical: 30.
	LowContrastBelow float64

	// HighNoiseAbove classifies images with contrast over this value as
	// high-noise. Typical: 80.
	HighNoiseAbove float64

	// NeutralBrightness and NeutralContrast are substituted when statistics
	// computation fails; the neutral values classify as standard.
	NeutralBrightness float64
	NeutralContrast   float64
}

// NewStatsAnalyzer returns an analyzer with the given thresholds.
// Non-positive thresholds fall back to the 30/80 defaults, and neutral
// defaults of brightness 128 / contrast 50 are always applied.
func NewStatsAnalyzer(lowContrastBelow, highNoiseAbove float64) *StatsAnalyzer {
	if lowContrastBelow <= 0 {
		lowContrastBelow = 30
	}
	if highNoiseAbove <= 0 {
		highNoiseAbove = 80
	}
	return &StatsAnalyzer{
		LowContrastBelow:  lowContrastBelow,
		HighNoiseAbove:    highNoiseAbove,
		NeutralBrightness: 128,
		NeutralContrast:   50,
	}
}

// Analyze computes statistics for a decoded image and classifies it.
//
// Statistics failure is soft: the analyzer substitutes the neutral defaults
// (standard classification), logs a warning, and processing continues. This
// is deliberately asymmetric with image loading, where an unreadable file is
// a hard error raised by the caller before Analyze is ever reached.
func (a *StatsAnalyzer) Analyze(img image.Image) Stats {
	brightness, contrast, err := computeIntensityStats(img)
	if err != nil {
		log.Printf("warning: image statistics failed, using neutral defaults: %v", err)
		brightness = a.NeutralBrightness
		contrast = a.NeutralContrast
	}

	return Stats{
		Brightness:    brightness,
		Contrast:      contrast,
		IsLowContrast: contrast < a.LowContrastBelow,
		IsHighNoise:   contrast > a.HighNoiseAbove,
	}
}

// computeIntensityStats returns the mean and standard deviation of pixel
// intensity over all channels, averaged across R, G and B.
func computeIntensityStats(img image.Image) (brightness, contrast float64, err error) {
	if img == nil {
		return 0, 0, errors.New("nil image")
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return 0, 0, errors.New("empty image bounds")
	}

	n := float64(width * height)
	var sumR, sumG, sumB float64
	var sumSqR, sumSqG, sumSqB float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(b >> 8)
			sumR += rf
			sumG += gf
			sumB += bf
			sumSqR += rf * rf
			sumSqG += gf * gf
			sumSqB += bf * bf
		}
	}

	meanR := sumR / n
	meanG := sumG / n
	meanB := sumB / n
	brightness = (meanR + meanG + meanB) / 3

	stdR := math.Sqrt(math.Max(0, sumSqR/n-meanR*meanR))
	stdG := math.Sqrt(math.Max(0, sumSqG/n-meanG*meanG))
	stdB := math.Sqrt(math.Max(0, sumSqB/n-meanB*meanB))
	contrast = (stdR + stdG + stdB) / 3

	return brightness, contrast, nil
}
