package ocr

import "context"

// Backend is an interchangeable text-recognition engine.
//
// Implementations produce word-level detections with bounding boxes and
// confidences normalized to the 0-100 scale. Dispatch always goes through
// this interface; callers never inspect the concrete type.
type Backend interface {
	// Name identifies the backend in logs and in Result.Engine.
	Name() string

	// IsAvailable probes whether the backend can run in this environment.
	// The probe may be expensive; the selection strategy caches its outcome
	// for the lifetime of the engine instance.
	IsAvailable() bool

	// Recognize performs OCR on a lossless-encoded image buffer. The raw
	// Text field of the result reflects the unfiltered transcription while
	// Words/Paragraphs/Blocks honor opts.ConfidenceThreshold.
	Recognize(ctx context.Context, imageData []byte, opts Options) (*Result, error)
}

// filterWords drops words below the threshold. The input order is preserved.
func filterWords(words []Word, threshold float64) []Word {
	kept := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Confidence >= threshold {
			kept = append(kept, w)
		}
	}
	return kept
}

// clampConfidence forces a confidence value into [0, 100].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
