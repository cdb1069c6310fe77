package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractBackend runs Tesseract in-process against a persistent worker.
//
// The underlying gosseract client is not reentrant, so recognition calls on
// the same worker are serialized by a mutex. The worker is initialized lazily
// on first use with the requested language set; re-initializing with the same
// languages is a no-op.
//
// A canceled context abandons an in-flight recognition rather than
// interrupting it: the call returns ctx.Err() immediately while the worker
// goroutine runs to natural completion and releases the lock.
type TesseractBackend struct {
	// DefaultThreshold applies when opts.ConfidenceThreshold is zero.
	DefaultThreshold float64

	grouper *Grouper

	mu          sync.Mutex
	client      *gosseract.Client
	initialized bool
	langs       string

	probeOnce sync.Once
	probeOK   bool
}

// NewTesseractBackend returns an uninitialized Tesseract worker backend. The
// grouper builds the structured output; nil falls back to the default ratio.
func NewTesseractBackend(defaultThreshold float64, grouper *Grouper) *TesseractBackend {
	if defaultThreshold <= 0 {
		defaultThreshold = 30
	}
	if grouper == nil {
		grouper = NewGrouper(0)
	}
	return &TesseractBackend{DefaultThreshold: defaultThreshold, grouper: grouper}
}

// Name implements Backend.
func (t *TesseractBackend) Name() string { return "tesseract" }

// IsAvailable probes the local Tesseract installation once and caches the
// outcome for the lifetime of the backend.
func (t *TesseractBackend) IsAvailable() bool {
	t.probeOnce.Do(func() {
		client := gosseract.NewClient()
		defer client.Close()
		t.probeOK = client.Version() != ""
	})
	return t.probeOK
}

// ensureWorker initializes the persistent worker for the given language set.
// Callers must hold t.mu.
func (t *TesseractBackend) ensureWorker(langs []string) error {
	key := strings.Join(langs, "+")
	if t.initialized && t.langs == key {
		return nil
	}

	if t.client == nil {
		t.client = gosseract.NewClient()
	}
	if err := t.client.SetLanguage(langs...); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	if err := t.client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	t.initialized = true
	t.langs = key
	return nil
}

// Recognize implements Backend.
func (t *TesseractBackend) Recognize(ctx context.Context, imageData []byte, opts Options) (*Result, error) {
	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)

	// Recognition is CPU-bound and long-running; dispatch it off the
	// caller's goroutine so cancellation can abandon the call.
	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		res, err := t.recognizeLocked(imageData, opts)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, &BackendExecutionError{Backend: t.Name(), Err: o.err}
		}
		return o.result, nil
	}
}

// recognizeLocked runs a full recognition pass. Callers must hold t.mu.
func (t *TesseractBackend) recognizeLocked(imageData []byte, opts Options) (*Result, error) {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := t.ensureWorker(langs); err != nil {
		return nil, err
	}

	if err := t.client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	words := make([]Word, 0, 64)
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		for _, box := range boxes {
			if strings.TrimSpace(box.Word) == "" {
				continue
			}
			words = append(words, Word{
				Text:       box.Word,
				Confidence: clampConfidence(box.Confidence),
				Box: Box{
					X0: box.Box.Min.X,
					Y0: box.Box.Min.Y,
					X1: box.Box.Max.X,
					Y1: box.Box.Max.Y,
				},
			})
		}
	}
	sortWordsReadingOrder(words)

	// Threshold filtering is post-hoc: the structured fields drop low
	// confidence words but the raw transcription keeps them.
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = t.DefaultThreshold
	}
	kept := filterWords(words, threshold)

	paragraphs := t.grouper.GroupIntoParagraphs(kept)
	blocks := t.grouper.GroupIntoBlocks(paragraphs)

	return &Result{
		Text:       text,
		Confidence: meanConfidence(kept),
		Words:      kept,
		Paragraphs: paragraphs,
		Blocks:     blocks,
		Engine:     t.Name(),
	}, nil
}

// Close terminates the persistent worker and releases its resources. It is
// idempotent: closing an uninitialized or already-closed backend is a no-op.
func (t *TesseractBackend) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	t.initialized = false
	t.langs = ""
	return err
}
