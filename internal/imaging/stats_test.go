package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// uniformImage creates an image filled with a single color.
func uniformImage(t *testing.T, width, height int, c color.Color) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// checkerImage alternates two colors per pixel, producing high contrast.
func checkerImage(t *testing.T, width, height int, a, b color.Color) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	return img
}

func TestAnalyze_UniformImage(t *testing.T) {
	a := NewStatsAnalyzer(30, 80)
	img := uniformImage(t, 40, 40, color.RGBA{100, 100, 100, 255})

	stats := a.Analyze(img)

	if math.Abs(stats.Brightness-100) > 1 {
		t.Errorf("Brightness: got %v, want ~100", stats.Brightness)
	}
	if stats.Contrast > 1 {
		t.Errorf("Contrast: got %v, want ~0", stats.Contrast)
	}
	if !stats.IsLowContrast {
		t.Error("Uniform image should classify as low-contrast")
	}
	if stats.IsHighNoise {
		t.Error("Uniform image should not classify as high-noise")
	}
}

func TestAnalyze_HighContrastImage(t *testing.T) {
	a := NewStatsAnalyzer(30, 80)
	img := checkerImage(t, 40, 40, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})

	stats := a.Analyze(img)

	if math.Abs(stats.Brightness-127.5) > 2 {
		t.Errorf("Brightness: got %v, want ~127.5", stats.Brightness)
	}
	// Half black, half white: the standard deviation is 127.5.
	if stats.Contrast < 100 {
		t.Errorf("Contrast: got %v, want >100", stats.Contrast)
	}
	if !stats.IsHighNoise {
		t.Error("Checkerboard should classify as high-noise")
	}
	if stats.IsLowContrast {
		t.Error("Checkerboard should not classify as low-contrast")
	}
}

func TestAnalyze_SoftFailureNeutralDefaults(t *testing.T) {
	a := NewStatsAnalyzer(30, 80)

	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil image", nil},
		{"empty bounds", image.NewRGBA(image.Rect(0, 0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := a.Analyze(tt.img)

			if stats.Brightness != 128 || stats.Contrast != 50 {
				t.Errorf("Neutral defaults: got brightness=%v contrast=%v, want 128/50",
					stats.Brightness, stats.Contrast)
			}
			// The neutral values select the standard pipeline.
			if stats.IsLowContrast || stats.IsHighNoise {
				t.Error("Neutral stats should classify as standard")
			}
		})
	}
}

func TestNewStatsAnalyzer_Defaults(t *testing.T) {
	a := NewStatsAnalyzer(0, -1)
	if a.LowContrastBelow != 30 || a.HighNoiseAbove != 80 {
		t.Errorf("Thresholds: got %v/%v, want 30/80", a.LowContrastBelow, a.HighNoiseAbove)
	}
}

func TestComputeIntensityStats_RGBChannels(t *testing.T) {
	// Pure red: per-channel means are 255, 0, 0; brightness averages to 85.
	img := uniformImage(t, 10, 10, color.RGBA{255, 0, 0, 255})

	brightness, contrast, err := computeIntensityStats(img)
	if err != nil {
		t.Fatalf("computeIntensityStats failed: %v", err)
	}
	if math.Abs(brightness-85) > 1 {
		t.Errorf("Brightness: got %v, want ~85", brightness)
	}
	if contrast > 1 {
		t.Errorf("Contrast: got %v, want ~0", contrast)
	}
}
