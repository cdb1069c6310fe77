package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestDominantColors_TwoToneImage(t *testing.T) {
	// Left three quarters red, right quarter blue.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 75 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}

	palette := DominantColors(img, 5)
	if len(palette) < 2 {
		t.Fatalf("Palette: got %d colors, want >= 2", len(palette))
	}

	if palette[0].Hex != "#FF0000" {
		t.Errorf("Dominant color: got %s, want #FF0000", palette[0].Hex)
	}
	if math.Abs(palette[0].Fraction-0.75) > 0.05 {
		t.Errorf("Dominant fraction: got %v, want ~0.75", palette[0].Fraction)
	}
	if palette[1].Hex != "#0000FF" {
		t.Errorf("Second color: got %s, want #0000FF", palette[1].Hex)
	}
}

func TestDominantColors_MergesSimilarShades(t *testing.T) {
	// Two barely distinguishable grays land in different quantization
	// buckets but must merge perceptually.
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.RGBA{118, 118, 118, 255})
			} else {
				img.Set(x, y, color.RGBA{130, 130, 130, 255})
			}
		}
	}

	palette := DominantColors(img, 5)
	if len(palette) != 1 {
		t.Errorf("Palette: got %d colors, want 1 after perceptual merge", len(palette))
	}
}

func TestDominantColors_CapsCount(t *testing.T) {
	// A rainbow of distinct hues.
	img := image.NewRGBA(image.Rect(0, 0, 128, 8))
	hues := []color.RGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255},
		{255, 255, 0, 255}, {0, 255, 255, 255}, {255, 0, 255, 255},
		{255, 128, 0, 255}, {128, 0, 255, 255},
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 128; x++ {
			img.Set(x, y, hues[x/16])
		}
	}

	palette := DominantColors(img, 3)
	if len(palette) != 3 {
		t.Errorf("Palette: got %d colors, want capped at 3", len(palette))
	}
}

func TestDominantColors_EmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if palette := DominantColors(img, 5); len(palette) != 0 {
		t.Errorf("Palette: got %d colors, want 0", len(palette))
	}
}

func TestDominantColors_DefaultCount(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{10, 200, 30, 255})
		}
	}

	palette := DominantColors(img, 0)
	if len(palette) != 1 {
		t.Fatalf("Palette: got %d colors, want 1", len(palette))
	}
	if palette[0].Fraction != 1 {
		t.Errorf("Fraction: got %v, want 1", palette[0].Fraction)
	}
}
