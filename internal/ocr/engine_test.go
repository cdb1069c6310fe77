package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/config"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/detection"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/imaging"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(config.Load(), imaging.NewImageCache())
	t.Cleanup(func() { e.Terminate() })
	return e
}

func writeEnginePNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}

	path := filepath.Join(t.TempDir(), "engine-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

func TestAnalyze_MissingFile(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Analyze(context.Background(), "/nonexistent/shot.png", AnalyzeOptions{})
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	var readErr *ImageReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Error type: got %T, want *ImageReadError", err)
	}
	if readErr.Path != "/nonexistent/shot.png" {
		t.Errorf("Path: got %s", readErr.Path)
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ExtractText(context.Background(), "/nonexistent/shot.png", []string{"eng"}, true)
	var readErr *ImageReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Error type: got %T, want *ImageReadError", err)
	}
}

func TestEnginePreprocess(t *testing.T) {
	e := newTestEngine(t)
	path := writeEnginePNG(t, 100, 80)

	data, pipeline, err := e.Preprocess(path, imaging.DefaultProcessOptions())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("Preprocess produced no output")
	}
	// A uniform gray image measures as low-contrast.
	if pipeline != imaging.PipelineLowContrast {
		t.Errorf("Pipeline: got %s, want %s", pipeline, imaging.PipelineLowContrast)
	}
}

func TestEnginePreprocess_MissingFile(t *testing.T) {
	e := newTestEngine(t)

	_, _, err := e.Preprocess("/nonexistent/shot.png", imaging.DefaultProcessOptions())
	var readErr *ImageReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Error type: got %T, want *ImageReadError", err)
	}
}

func TestEngineTerminate_Idempotent(t *testing.T) {
	e := NewEngine(config.Load(), imaging.NewImageCache())

	if err := e.Terminate(); err != nil {
		t.Fatalf("First Terminate failed: %v", err)
	}
	if err := e.Terminate(); err != nil {
		t.Fatalf("Second Terminate failed: %v", err)
	}
}

func TestFillTableText(t *testing.T) {
	tables := &detection.TablesResult{
		Tables: []detection.Table{
			{
				Rows: 1,
				Cols: 2,
				Box:  detection.Box{X0: 0, Y0: 0, X1: 200, Y1: 50},
				Cells: [][]detection.TableCell{
					{
						{Box: detection.Box{X0: 0, Y0: 0, X1: 100, Y1: 50}, RowSpan: 1, ColSpan: 1},
						{Box: detection.Box{X0: 100, Y0: 0, X1: 200, Y1: 50}, RowSpan: 1, ColSpan: 1},
					},
				},
			},
		},
		TotalTables: 1,
	}

	words := []Word{
		{Text: "left", Box: Box{X0: 10, Y0: 10, X1: 60, Y1: 30}},
		{Text: "cell", Box: Box{X0: 62, Y0: 10, X1: 95, Y1: 30}},
		{Text: "right", Box: Box{X0: 110, Y0: 10, X1: 160, Y1: 30}},
		{Text: "outside", Box: Box{X0: 10, Y0: 200, X1: 80, Y1: 220}},
	}

	fillTableText(tables, words)

	if got := tables.Tables[0].Cells[0][0].Text; got != "left cell" {
		t.Errorf("First cell: got %q, want %q", got, "left cell")
	}
	if got := tables.Tables[0].Cells[0][1].Text; got != "right" {
		t.Errorf("Second cell: got %q, want %q", got, "right")
	}
}
