// Package ocr implements hybrid text recognition for screenshots.
//
// This package orchestrates two OCR backends behind a single Engine: a
// persistent in-process Tesseract worker (via gosseract/v2) and a per-call
// PaddleOCR Python subprocess. A selection strategy decides which backend to
// try first from the requested languages and the source file size, and a
// merger combines word-level output when both backends run.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// PaddleOCR is optional. When a Python interpreter with the paddleocr
// package installed is present, it is preferred for CJK languages; when it is
// absent the engine degrades gracefully to Tesseract alone.
//
// # Backend Selection
//
// Languages use Tesseract codes ("eng", "chi_tra", "jpn", "kor", ...).
// CJK-leaning requests route to PaddleOCR first and, when the source file is
// small enough, both backends run in parallel and their words are merged by
// spatial position, keeping the higher-confidence candidate per position.
// Latin-script requests run Tesseract first with PaddleOCR as failover.
//
// # Confidence
//
// All confidences are on a 0-100 scale; PaddleOCR's native 0-1 scores are
// normalized at the adapter boundary. Words below the effective threshold
// are dropped from the structured output (words, paragraphs, blocks) while
// the raw transcription text is kept unfiltered.
//
// # Errors
//
// Failures carry typed errors: ImageReadError, BackendUnavailableError,
// BackendExecutionError, BackendTimeoutError and NoBackendAvailableError,
// all matchable with errors.As. NoBackendAvailableError retains the
// per-backend attempt errors for diagnosis.
//
// # Lifecycle
//
// The Engine holds the only long-lived resource, the Tesseract worker.
// Construct with NewEngine and release with Terminate; both are safe to call
// from any goroutine and Terminate is idempotent.
package ocr
