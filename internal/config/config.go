// Package config holds the environment-driven configuration for the
// screenshot analyzer.
//
// Every empirically chosen constant of the OCR pipeline (classification
// thresholds, upscale width, binarization level, subprocess timeout, merge
// bucket size) is surfaced here rather than hard-coded at its point of use.
// Values come from SCREENSHOT_MCP_* environment variables with sensible
// defaults; a .env file is honored when present (loaded by the entrypoint).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects all tunable parameters of the server.
type Config struct {
	// LowContrastBelow classifies images with contrast under this value as
	// low-contrast.
	LowContrastBelow float64

	// HighNoiseAbove classifies images with contrast over this value as
	// high-noise.
	HighNoiseAbove float64

	// TargetWidth is the minimum working width for OCR; narrower images are
	// upscaled with Lanczos resampling before preprocessing.
	TargetWidth int

	// BinarizeLevel is the fixed threshold level (0-255) used by the
	// binarizing pipelines.
	BinarizeLevel uint8

	// ThresholdMode selects the standard pipeline's threshold step:
	// "fixed" for reference parity or "otsu" for genuine adaptive
	// thresholding.
	ThresholdMode string

	// SizeLimitBytes restricts recognition to a single backend for source
	// files larger than this.
	SizeLimitBytes int64

	// SubprocessTimeout bounds each PaddleOCR subprocess invocation.
	SubprocessTimeout time.Duration

	// PythonPath is the interpreter used for subprocess backends.
	PythonPath string

	// TesseractThreshold is the default word-confidence cutoff (0-100) for
	// the Tesseract backend.
	TesseractThreshold float64

	// PaddleThreshold is the default word-confidence cutoff (0-100) for the
	// PaddleOCR backend.
	PaddleThreshold float64

	// ParagraphGapRatio is the fraction of the previous word's height that
	// a vertical gap must exceed to start a new paragraph.
	ParagraphGapRatio float64

	// MergeBucketPx is the spatial quantization in pixels for hybrid word
	// merging.
	MergeBucketPx int
}

// Load reads the configuration from the environment, applying defaults for
// anything unset or unparseable.
func Load() *Config {
	return &Config{
		LowContrastBelow:   envFloat("SCREENSHOT_MCP_LOW_CONTRAST_BELOW", 30),
		HighNoiseAbove:     envFloat("SCREENSHOT_MCP_HIGH_NOISE_ABOVE", 80),
		TargetWidth:        envInt("SCREENSHOT_MCP_TARGET_WIDTH", 1280),
		BinarizeLevel:      uint8(envInt("SCREENSHOT_MCP_BINARIZE_LEVEL", 100)),
		ThresholdMode:      envString("SCREENSHOT_MCP_THRESHOLD_MODE", "fixed"),
		SizeLimitBytes:     int64(envInt("SCREENSHOT_MCP_SIZE_LIMIT_BYTES", 5*1024*1024)),
		SubprocessTimeout:  envDuration("SCREENSHOT_MCP_SUBPROCESS_TIMEOUT", 120*time.Second),
		PythonPath:         envString("SCREENSHOT_MCP_PYTHON", "python3"),
		TesseractThreshold: envFloat("SCREENSHOT_MCP_TESSERACT_THRESHOLD", 30),
		PaddleThreshold:    envFloat("SCREENSHOT_MCP_PADDLE_THRESHOLD", 15),
		ParagraphGapRatio:  envFloat("SCREENSHOT_MCP_PARAGRAPH_GAP_RATIO", 0.6),
		MergeBucketPx:      envInt("SCREENSHOT_MCP_MERGE_BUCKET_PX", 10),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
