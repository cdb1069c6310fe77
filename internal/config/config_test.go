package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.LowContrastBelow != 30 {
		t.Errorf("LowContrastBelow: got %v, want 30", cfg.LowContrastBelow)
	}
	if cfg.HighNoiseAbove != 80 {
		t.Errorf("HighNoiseAbove: got %v, want 80", cfg.HighNoiseAbove)
	}
	if cfg.TargetWidth != 1280 {
		t.Errorf("TargetWidth: got %d, want 1280", cfg.TargetWidth)
	}
	if cfg.BinarizeLevel != 100 {
		t.Errorf("BinarizeLevel: got %d, want 100", cfg.BinarizeLevel)
	}
	if cfg.ThresholdMode != "fixed" {
		t.Errorf("ThresholdMode: got %s, want fixed", cfg.ThresholdMode)
	}
	if cfg.SizeLimitBytes != 5*1024*1024 {
		t.Errorf("SizeLimitBytes: got %d, want 5MiB", cfg.SizeLimitBytes)
	}
	if cfg.SubprocessTimeout != 120*time.Second {
		t.Errorf("SubprocessTimeout: got %s, want 120s", cfg.SubprocessTimeout)
	}
	if cfg.PythonPath != "python3" {
		t.Errorf("PythonPath: got %s, want python3", cfg.PythonPath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCREENSHOT_MCP_TARGET_WIDTH", "1920")
	t.Setenv("SCREENSHOT_MCP_THRESHOLD_MODE", "otsu")
	t.Setenv("SCREENSHOT_MCP_SUBPROCESS_TIMEOUT", "45s")
	t.Setenv("SCREENSHOT_MCP_PARAGRAPH_GAP_RATIO", "0.8")

	cfg := Load()

	if cfg.TargetWidth != 1920 {
		t.Errorf("TargetWidth: got %d, want 1920", cfg.TargetWidth)
	}
	if cfg.ThresholdMode != "otsu" {
		t.Errorf("ThresholdMode: got %s, want otsu", cfg.ThresholdMode)
	}
	if cfg.SubprocessTimeout != 45*time.Second {
		t.Errorf("SubprocessTimeout: got %s, want 45s", cfg.SubprocessTimeout)
	}
	if cfg.ParagraphGapRatio != 0.8 {
		t.Errorf("ParagraphGapRatio: got %v, want 0.8", cfg.ParagraphGapRatio)
	}
}

func TestLoad_UnparseableFallsBack(t *testing.T) {
	t.Setenv("SCREENSHOT_MCP_TARGET_WIDTH", "very wide")
	t.Setenv("SCREENSHOT_MCP_SUBPROCESS_TIMEOUT", "soon")
	t.Setenv("SCREENSHOT_MCP_LOW_CONTRAST_BELOW", "NaN-ish")

	cfg := Load()

	if cfg.TargetWidth != 1280 {
		t.Errorf("TargetWidth: got %d, want default 1280", cfg.TargetWidth)
	}
	if cfg.SubprocessTimeout != 120*time.Second {
		t.Errorf("SubprocessTimeout: got %s, want default 120s", cfg.SubprocessTimeout)
	}
	if cfg.LowContrastBelow != 30 {
		t.Errorf("LowContrastBelow: got %v, want default 30", cfg.LowContrastBelow)
	}
}
