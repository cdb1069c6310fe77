package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Pipeline names reported alongside preprocessing output.
const (
	PipelineLowContrast = "low-contrast"
	PipelineHighNoise   = "high-noise"
	PipelineStandard    = "standard"
)

// Threshold modes for the standard pipeline's binarization step.
const (
	ThresholdFixed = "fixed"
	ThresholdOtsu  = "otsu"
)

// ProcessOptions carries caller overrides for a preprocessing run.
type ProcessOptions struct {
	// EnhanceContrast enables the contrast adjustment steps.
	EnhanceContrast bool

	// RemoveNoise enables the denoising steps.
	RemoveNoise bool

	// Resize, when non-nil, replaces the default upscale with an explicit
	// target size.
	Resize *ResizeSpec
}

// ResizeSpec is an explicit resize request.
type ResizeSpec struct {
	Width               int
	Height              int
	MaintainAspectRatio bool
}

// DefaultProcessOptions returns the options used when the caller supplies
// none: both enhancement steps enabled, no explicit resize.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{EnhanceContrast: true, RemoveNoise: true}
}

// Preprocessor cleans an image up for OCR, selecting one of three pipelines
// from the image's measured statistics.
//
//   - low-contrast: gentle brightness/saturation lift, sharpen and
//     auto-normalize, with the binarization step omitted so faint text is
//     not thresholded away.
//   - high-noise: median filter and blur for denoising, a stronger linear
//     contrast stretch, then binarization at a fixed level.
//   - standard: moderate stretch, mild denoise, then a threshold step that
//     is either fixed (reference parity) or Otsu, selected by ThresholdMode.
//
// All pipelines unconditionally upscale images narrower than TargetWidth
// using Lanczos resampling before the branch-specific steps run, because OCR
// accuracy degrades sharply below that resolution.
type Preprocessor struct {
	// TargetWidth is the minimum working width in pixels. Zero means 1280.
	TargetWidth int

	// BinarizeLevel is the fixed threshold level on the 0-255 scale used by
	// the high-noise and fixed-mode standard pipelines. Zero means 100.
	BinarizeLevel uint8

	// ThresholdMode selects the standard pipeline's threshold step:
	// ThresholdFixed or ThresholdOtsu. Empty means fixed.
	ThresholdMode string
}

// NewPreprocessor returns a preprocessor with the given working parameters.
func NewPreprocessor(targetWidth int, binarizeLevel uint8, thresholdMode string) *Preprocessor {
	if targetWidth <= 0 {
		targetWidth = 1280
	}
	if binarizeLevel == 0 {
		binarizeLevel = 100
	}
	if thresholdMode == "" {
		thresholdMode = ThresholdFixed
	}
	return &Preprocessor{
		TargetWidth:   targetWidth,
		BinarizeLevel: binarizeLevel,
		ThresholdMode: thresholdMode,
	}
}

// Process runs the pipeline selected by stats and returns the cleaned image
// together with the pipeline name.
func (p *Preprocessor) Process(img image.Image, stats Stats, opts ProcessOptions) (image.Image, string) {
	img = p.upscale(img, opts.Resize)

	switch {
	case stats.IsLowContrast:
		return p.lowContrastPipeline(img, opts), PipelineLowContrast
	case stats.IsHighNoise:
		return p.highNoisePipeline(img, opts), PipelineHighNoise
	default:
		return p.standardPipeline(img, opts), PipelineStandard
	}
}

// ProcessToPNG runs Process and encodes the output as lossless PNG.
func (p *Preprocessor) ProcessToPNG(img image.Image, stats Stats, opts ProcessOptions) ([]byte, string, error) {
	out, pipeline := p.Process(img, stats, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, "", fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	return buf.Bytes(), pipeline, nil
}

// upscale enforces the minimum working width, or applies the caller's
// explicit resize when one is given. This step runs before any pipeline
// branch.
func (p *Preprocessor) upscale(img image.Image, spec *ResizeSpec) image.Image {
	if spec != nil && (spec.Width > 0 || spec.Height > 0) {
		if spec.MaintainAspectRatio {
			return imaging.Fit(img, orDefault(spec.Width, img.Bounds().Dx()), orDefault(spec.Height, img.Bounds().Dy()), imaging.Lanczos)
		}
		return imaging.Resize(img, spec.Width, spec.Height, imaging.Lanczos)
	}

	if img.Bounds().Dx() >= p.TargetWidth {
		return img
	}
	return imaging.Resize(img, p.TargetWidth, 0, imaging.Lanczos)
}

// lowContrastPipeline protects faint text: no binarization, only a gentle
// lift, sharpen and normalize.
func (p *Preprocessor) lowContrastPipeline(img image.Image, opts ProcessOptions) image.Image {
	var out image.Image = imaging.AdjustBrightness(img, 10)
	out = imaging.AdjustSaturation(out, 10)
	out = imaging.Sharpen(out, 0.8)
	if opts.EnhanceContrast {
		out = normalizeContrast(out)
	}
	return out
}

// highNoisePipeline denoises aggressively, stretches contrast hard, then
// binarizes at the fixed level.
func (p *Preprocessor) highNoisePipeline(img image.Image, opts ProcessOptions) image.Image {
	var out image.Image = img
	if opts.RemoveNoise {
		out = effect.Median(out, 2)
		out = imaging.Blur(out, 0.6)
	}
	if opts.EnhanceContrast {
		out = imaging.AdjustContrast(out, 30)
		out = normalizeContrast(out)
	}
	return segment.Threshold(out, p.BinarizeLevel)
}

// standardPipeline applies a moderate stretch, a mild denoise, and the
// configured threshold step.
func (p *Preprocessor) standardPipeline(img image.Image, opts ProcessOptions) image.Image {
	var out image.Image = img
	if opts.EnhanceContrast {
		out = imaging.AdjustContrast(out, 15)
	}
	if opts.RemoveNoise {
		out = imaging.Blur(out, 0.3)
	}

	level := p.BinarizeLevel
	if p.ThresholdMode == ThresholdOtsu {
		level = otsuLevel(out)
	}
	return segment.Threshold(out, level)
}

// normalizeContrast applies a linear stretch mapping the darkest pixel to 0
// and the brightest to 255 per the luminance histogram.
func normalizeContrast(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	lo, hi := 255, 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := int(gray.NRGBAAt(x, y).R)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	src := imaging.Clone(img)
	for y := src.Bounds().Min.Y; y < src.Bounds().Max.Y; y++ {
		for x := src.Bounds().Min.X; x < src.Bounds().Max.X; x++ {
			px := src.NRGBAAt(x, y)
			px.R = stretchChannel(px.R, lo, scale)
			px.G = stretchChannel(px.G, lo, scale)
			px.B = stretchChannel(px.B, lo, scale)
			src.SetNRGBA(x, y, px)
		}
	}
	return src
}

func stretchChannel(v uint8, lo int, scale float64) uint8 {
	stretched := (float64(v) - float64(lo)) * scale
	if stretched < 0 {
		return 0
	}
	if stretched > 255 {
		return 255
	}
	return uint8(stretched)
}

// otsuLevel computes Otsu's threshold from the grayscale histogram.
func otsuLevel(img image.Image) uint8 {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	var hist [256]int
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.NRGBAAt(x, y).R]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, count := range hist {
		sum += float64(i) * float64(count)
	}

	var sumBack, weightBack float64
	var bestLevel uint8
	var bestVariance float64

	for i := 0; i < 256; i++ {
		weightBack += float64(hist[i])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(i) * float64(hist[i])

		meanBack := sumBack / weightBack
		meanFore := (sum - sumBack) / weightFore
		diff := meanBack - meanFore
		variance := weightBack * weightFore * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestLevel = uint8(i)
		}
	}
	return bestLevel
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
