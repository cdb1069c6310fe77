package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/config"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/detection"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/imaging"
)

// Engine owns the full recognition pipeline: statistics, preprocessing,
// backend selection, merging and table detection.
//
// The engine's lifecycle belongs to its caller: construct it with NewEngine
// and release the Tesseract worker with Terminate. There is no ambient global
// state; every component hangs off the engine instance. All per-call entities
// (stats, results, tables) are created fresh per invocation and discarded
// after the response is serialized.
type Engine struct {
	analyzer  *imaging.StatsAnalyzer
	pre       *imaging.Preprocessor
	tesseract *TesseractBackend
	paddle    *PaddleBackend
	strategy  *Strategy
	merger    *Merger
	grouper   *Grouper
	detector  *detection.Detector
	cache     *imaging.ImageCache

	mu         sync.Mutex
	terminated bool
}

// NewEngine assembles an engine from the given configuration and image cache.
func NewEngine(cfg *config.Config, cache *imaging.ImageCache) *Engine {
	grouper := NewGrouper(cfg.ParagraphGapRatio)
	tesseract := NewTesseractBackend(cfg.TesseractThreshold, grouper)
	paddle := NewPaddleBackend(cfg.PythonPath, cfg.SubprocessTimeout, cfg.PaddleThreshold, grouper)

	return &Engine{
		analyzer:  NewStatsAnalyzerFromConfig(cfg),
		pre:       imaging.NewPreprocessor(cfg.TargetWidth, cfg.BinarizeLevel, cfg.ThresholdMode),
		tesseract: tesseract,
		paddle:    paddle,
		strategy:  NewStrategy(tesseract, paddle, cfg.SizeLimitBytes),
		merger:    NewMerger(cfg.MergeBucketPx, grouper),
		grouper:   grouper,
		detector:  detection.NewDetector(),
		cache:     cache,
	}
}

// NewStatsAnalyzerFromConfig builds the stats analyzer with the configured
// classification thresholds.
func NewStatsAnalyzerFromConfig(cfg *config.Config) *imaging.StatsAnalyzer {
	return imaging.NewStatsAnalyzer(cfg.LowContrastBelow, cfg.HighNoiseAbove)
}

// AnalyzeOptions controls a full analysis call.
type AnalyzeOptions struct {
	Options

	// Preprocess carries the caller's image-processing overrides.
	Preprocess imaging.ProcessOptions

	// EnhanceImage enables adaptive preprocessing before recognition.
	EnhanceImage bool

	// DetectTables enables concurrent table detection on the original image.
	DetectTables bool
}

// AnalyzeResult is the assembled outcome of a full analysis.
type AnalyzeResult struct {
	OCR      *Result
	Stats    imaging.Stats
	Pipeline string

	// Tables is nil when detection was not requested or failed; a detection
	// failure never fails the overall analysis.
	Tables *detection.TablesResult

	ProcessingMS int64
}

// Analyze runs the complete pipeline on an image file.
//
// Control flow: classify image statistics, preprocess, select and run
// backend(s), merge multi-backend output, and detect tables in parallel on
// the original image. Table detection failures are recovered by omitting
// tables from the response.
func (e *Engine) Analyze(ctx context.Context, path string, opts AnalyzeOptions) (*AnalyzeResult, error) {
	start := time.Now()

	img, err := e.cache.Load(path)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: err}
	}
	fileSize, err := imaging.FileSize(path)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: err}
	}

	var tablesCh chan *detection.TablesResult
	if opts.DetectTables {
		tablesCh = make(chan *detection.TablesResult, 1)
		go func() {
			tables, derr := e.detector.DetectTables(img)
			if derr != nil {
				log.Printf("warning: %v", &TableDetectionError{Err: derr})
				tablesCh <- nil
				return
			}
			tablesCh <- tables
		}()
	}

	stats, pipeline, imageData, err := e.prepare(img, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.strategy.Run(ctx, imageData, opts.Options, fileSize, e.merger)
	if err != nil {
		return nil, err
	}

	analyzed := &AnalyzeResult{
		OCR:      result,
		Stats:    stats,
		Pipeline: pipeline,
	}

	if tablesCh != nil {
		if tables := <-tablesCh; tables != nil {
			fillTableText(tables, result.Words)
			analyzed.Tables = tables
		}
	}

	analyzed.ProcessingMS = time.Since(start).Milliseconds()
	return analyzed, nil
}

// ExtractResult is the outcome of a text-only extraction.
type ExtractResult struct {
	Text         string
	Confidence   float64
	WordCount    int
	EnginesUsed  []string
	ProcessingMS int64
}

// ExtractText runs preprocessing, backend selection and merging only,
// skipping table detection and structural analysis.
func (e *Engine) ExtractText(ctx context.Context, path string, languages []string, enhance bool) (*ExtractResult, error) {
	start := time.Now()

	img, err := e.cache.Load(path)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: err}
	}
	fileSize, err := imaging.FileSize(path)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: err}
	}

	opts := AnalyzeOptions{
		Options:      Options{Languages: languages},
		Preprocess:   imaging.DefaultProcessOptions(),
		EnhanceImage: enhance,
	}
	_, _, imageData, err := e.prepare(img, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.strategy.Run(ctx, imageData, opts.Options, fileSize, e.merger)
	if err != nil {
		return nil, err
	}

	return &ExtractResult{
		Text:         result.Text,
		Confidence:   result.Confidence,
		WordCount:    len(result.Words),
		EnginesUsed:  strings.Split(result.Engine, ","),
		ProcessingMS: time.Since(start).Milliseconds(),
	}, nil
}

// Preprocess exposes the adaptive preprocessor directly, returning the
// processed lossless buffer and the pipeline that produced it.
func (e *Engine) Preprocess(path string, opts imaging.ProcessOptions) ([]byte, string, error) {
	img, err := e.cache.Load(path)
	if err != nil {
		return nil, "", &ImageReadError{Path: path, Err: err}
	}

	stats := e.analyzer.Analyze(img)
	return e.pre.ProcessToPNG(img, stats, opts)
}

// prepare computes statistics and produces the recognition input buffer.
// When enhancement is disabled the image is re-encoded losslessly without
// any pipeline steps.
func (e *Engine) prepare(img image.Image, opts AnalyzeOptions) (imaging.Stats, string, []byte, error) {
	stats := e.analyzer.Analyze(img)

	if !opts.EnhanceImage {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return stats, "", nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return stats, "none", buf.Bytes(), nil
	}

	data, pipeline, err := e.pre.ProcessToPNG(img, stats, opts.Preprocess)
	if err != nil {
		return stats, "", nil, err
	}
	return stats, pipeline, data, nil
}

// fillTableText annotates table cells with the OCR words whose box center
// falls inside the cell. The association is purely spatial; tables and OCR
// results keep no references to each other.
func fillTableText(tables *detection.TablesResult, words []Word) {
	for ti := range tables.Tables {
		table := &tables.Tables[ti]
		for r := range table.Cells {
			for c := range table.Cells[r] {
				cell := &table.Cells[r][c]
				parts := make([]string, 0, 2)
				for _, w := range words {
					cx := (w.Box.X0 + w.Box.X1) / 2
					cy := (w.Box.Y0 + w.Box.Y1) / 2
					if cx >= cell.Box.X0 && cx < cell.Box.X1 && cy >= cell.Box.Y0 && cy < cell.Box.Y1 {
						parts = append(parts, w.Text)
					}
				}
				cell.Text = strings.Join(parts, " ")
			}
		}
	}
}

// Terminate shuts the engine down, releasing the Tesseract worker. It is
// idempotent: calling it twice, or on an engine that never recognized
// anything, is a no-op.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminated {
		return nil
	}
	e.terminated = true
	return e.tesseract.Close()
}
