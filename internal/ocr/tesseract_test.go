package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawTestText renders text onto an image with basicfont.
func drawTestText(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// renderTextPNG produces PNG bytes with the given text rendered at a scale
// large enough for recognition. basicfont.Face7x13 is 7x13 per character.
func renderTextPNG(t *testing.T, text string, scale int) []byte {
	t.Helper()

	width := len(text)*7 + 40
	height := 40
	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawTestText(small, 20, 25, text)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func skipWithoutTesseract(t *testing.T, b *TesseractBackend) {
	t.Helper()
	if !b.IsAvailable() {
		t.Skip("Tesseract not available")
	}
}

func TestNewTesseractBackend_Defaults(t *testing.T) {
	b := NewTesseractBackend(0, nil)
	if b.DefaultThreshold != 30 {
		t.Errorf("DefaultThreshold: got %v, want 30", b.DefaultThreshold)
	}
	if b.grouper == nil || b.grouper.GapRatio != 0.6 {
		t.Errorf("Default grouper: got %+v", b.grouper)
	}

	custom := NewTesseractBackend(55, NewGrouper(1.2))
	if custom.DefaultThreshold != 55 {
		t.Errorf("DefaultThreshold: got %v, want 55", custom.DefaultThreshold)
	}
	if custom.grouper.GapRatio != 1.2 {
		t.Errorf("GapRatio: got %v, want 1.2", custom.grouper.GapRatio)
	}
}

func TestTesseractBackend_Name(t *testing.T) {
	if got := NewTesseractBackend(30, nil).Name(); got != "tesseract" {
		t.Errorf("Name: got %q, want tesseract", got)
	}
}

func TestTesseractBackend_Close_Idempotent(t *testing.T) {
	b := NewTesseractBackend(30, nil)

	// Closing a backend that never recognized anything is a no-op.
	if err := b.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}

func TestTesseractBackend_Recognize(t *testing.T) {
	b := NewTesseractBackend(30, nil)
	skipWithoutTesseract(t, b)
	t.Cleanup(func() { b.Close() })

	data := renderTextPNG(t, "HELLO WORLD", 4)
	result, err := b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if result.Engine != "tesseract" {
		t.Errorf("Engine: got %q, want tesseract", result.Engine)
	}
	for _, w := range result.Words {
		if w.Confidence < 0 || w.Confidence > 100 {
			t.Errorf("Word %q confidence out of range: %v", w.Text, w.Confidence)
		}
		if w.Confidence < 30 {
			t.Errorf("Word %q below threshold: %v", w.Text, w.Confidence)
		}
		if w.Box.X1 <= w.Box.X0 || w.Box.Y1 <= w.Box.Y0 {
			t.Errorf("Word %q has degenerate box: %+v", w.Text, w.Box)
		}
	}
	t.Logf("Extracted text: %q, words: %d", result.Text, len(result.Words))
}

func TestTesseractBackend_ReinitNoOp(t *testing.T) {
	b := NewTesseractBackend(30, nil)
	skipWithoutTesseract(t, b)
	t.Cleanup(func() { b.Close() })

	data := renderTextPNG(t, "TEST", 4)
	if _, err := b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}}); err != nil {
		t.Fatalf("First Recognize failed: %v", err)
	}

	b.mu.Lock()
	first := b.client
	if !b.initialized || b.langs != "eng" {
		t.Errorf("Worker state after first call: initialized=%v langs=%q", b.initialized, b.langs)
	}
	b.mu.Unlock()

	// Same language set: the persistent worker is reused, not rebuilt.
	if _, err := b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}}); err != nil {
		t.Fatalf("Second Recognize failed: %v", err)
	}

	b.mu.Lock()
	if b.client != first {
		t.Error("Worker was rebuilt for an identical language set")
	}
	b.mu.Unlock()
}

func TestTesseractBackend_ConcurrentRecognize(t *testing.T) {
	b := NewTesseractBackend(30, nil)
	skipWithoutTesseract(t, b)
	t.Cleanup(func() { b.Close() })

	data := renderTextPNG(t, "CONCURRENT", 4)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Concurrent call %d failed: %v", i, err)
		}
	}
}

func TestTesseractBackend_CanceledContext(t *testing.T) {
	b := NewTesseractBackend(30, nil)
	skipWithoutTesseract(t, b)
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Recognize(ctx, renderTextPNG(t, "ABANDONED", 4), Options{Languages: []string{"eng"}})
	if err != context.Canceled {
		t.Fatalf("Error: got %v, want context.Canceled", err)
	}
}

func TestTesseractBackend_Close_Reinitializes(t *testing.T) {
	b := NewTesseractBackend(30, nil)
	skipWithoutTesseract(t, b)

	data := renderTextPNG(t, "FIRST", 4)
	if _, err := b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}}); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A closed backend lazily builds a fresh worker on the next call.
	if _, err := b.Recognize(context.Background(), data, Options{Languages: []string{"eng"}}); err != nil {
		t.Fatalf("Recognize after Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Final Close failed: %v", err)
	}
}
