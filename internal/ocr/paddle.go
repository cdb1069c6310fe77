package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// paddleScript is the recognition program handed to the Python interpreter.
// The engine is constructed fresh on the subprocess side for every invocation,
// which is slow but robust to crashes. The script writes exactly one JSON
// document to stdout.
const paddleScript = `import json, sys
from paddleocr import PaddleOCR

engine = PaddleOCR(use_angle_cls=True, lang=sys.argv[2], show_log=False)
pages = engine.ocr(sys.argv[1], cls=True) or []

words = []
lines = []
for page in pages:
    for det in page or []:
        quad, (text, conf) = det[0], det[1]
        xs = [p[0] for p in quad]
        ys = [p[1] for p in quad]
        words.append({
            "text": text,
            "confidence": conf,
            "box": [int(min(xs)), int(min(ys)), int(max(xs)), int(max(ys))],
        })
        lines.append(text)

print(json.dumps({"text": "\n".join(lines), "words": words}, ensure_ascii=False))
`

// paddleOutput is the JSON document expected on the subprocess stdout.
type paddleOutput struct {
	Text  string `json:"text"`
	Words []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Box        [4]int  `json:"box"`
	} `json:"words"`
}

// PaddleBackend invokes PaddleOCR as an external Python subprocess per call.
//
// There is no persistent process: each Recognize spawns a fresh interpreter,
// waits for a single JSON document on stdout, and validates both the exit
// code and the JSON before trusting the result. Exceeding the configured
// timeout kills the subprocess and yields a BackendTimeoutError.
type PaddleBackend struct {
	// PythonPath is the interpreter executable. Defaults to "python3".
	PythonPath string

	// Timeout bounds each subprocess invocation.
	Timeout time.Duration

	// DefaultThreshold applies when opts.ConfidenceThreshold is zero.
	DefaultThreshold float64

	grouper *Grouper

	probeOnce sync.Once
	probeOK   bool
}

// NewPaddleBackend returns a subprocess-based PaddleOCR backend. The grouper
// builds the structured output; nil falls back to the default ratio.
func NewPaddleBackend(pythonPath string, timeout time.Duration, defaultThreshold float64, grouper *Grouper) *PaddleBackend {
	if pythonPath == "" {
		pythonPath = "python3"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if defaultThreshold <= 0 {
		defaultThreshold = 15
	}
	if grouper == nil {
		grouper = NewGrouper(0)
	}
	return &PaddleBackend{
		PythonPath:       pythonPath,
		Timeout:          timeout,
		DefaultThreshold: defaultThreshold,
		grouper:          grouper,
	}
}

// Name implements Backend.
func (p *PaddleBackend) Name() string { return "paddleocr" }

// IsAvailable probes once whether the interpreter exists and can import
// paddleocr, caching the outcome for the lifetime of the backend.
func (p *PaddleBackend) IsAvailable() bool {
	p.probeOnce.Do(func() {
		if _, err := exec.LookPath(p.PythonPath); err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		cmd := exec.CommandContext(ctx, p.PythonPath, "-c", "import paddleocr")
		p.probeOK = cmd.Run() == nil
	})
	return p.probeOK
}

// Recognize implements Backend.
func (p *PaddleBackend) Recognize(ctx context.Context, imageData []byte, opts Options) (*Result, error) {
	workDir := os.TempDir()
	id := uuid.NewString()

	imagePath := filepath.Join(workDir, "paddle-input-"+id+".png")
	if err := os.WriteFile(imagePath, imageData, 0o600); err != nil {
		return nil, &BackendExecutionError{Backend: p.Name(), Err: fmt.Errorf("failed to stage image: %w", err)}
	}
	defer os.Remove(imagePath)

	scriptPath := filepath.Join(workDir, "paddle-run-"+id+".py")
	if err := os.WriteFile(scriptPath, []byte(paddleScript), 0o600); err != nil {
		return nil, &BackendExecutionError{Backend: p.Name(), Err: fmt.Errorf("failed to write script: %w", err)}
	}
	defer os.Remove(scriptPath)

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.PythonPath, scriptPath, imagePath, paddleLanguage(opts.Languages))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil && ctx.Err() == nil {
		return nil, &BackendTimeoutError{Backend: p.Name(), Timeout: p.Timeout}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, &BackendExecutionError{
			Backend: p.Name(),
			Err:     fmt.Errorf("subprocess failed: %w (stderr: %s)", err, truncate(stderr.String(), 400)),
		}
	}

	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = p.DefaultThreshold
	}

	result, err := parsePaddleOutput(stdout.Bytes(), threshold, p.grouper)
	if err != nil {
		return nil, &BackendExecutionError{Backend: p.Name(), Err: err}
	}
	result.Engine = p.Name()
	return result, nil
}

// parsePaddleOutput validates and converts the subprocess JSON into a Result.
// Confidences arrive on the 0-1 scale and are normalized to 0-100 here, at
// the adapter boundary, so the merger can compare magnitudes across backends.
func parsePaddleOutput(data []byte, threshold float64, grouper *Grouper) (*Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("subprocess produced no output")
	}

	var out paddleOutput
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("malformed subprocess output: %w", err)
	}

	words := make([]Word, 0, len(out.Words))
	for _, w := range out.Words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		words = append(words, Word{
			Text:       w.Text,
			Confidence: clampConfidence(w.Confidence * 100),
			Box:        Box{X0: w.Box[0], Y0: w.Box[1], X1: w.Box[2], Y1: w.Box[3]},
		})
	}
	sortWordsReadingOrder(words)
	kept := filterWords(words, threshold)

	paragraphs := grouper.GroupIntoParagraphs(kept)
	blocks := grouper.GroupIntoBlocks(paragraphs)

	return &Result{
		Text:       out.Text,
		Confidence: meanConfidence(kept),
		Words:      kept,
		Paragraphs: paragraphs,
		Blocks:     blocks,
	}, nil
}

// paddleLanguage maps Tesseract-style language tags onto PaddleOCR's
// language identifiers. The first recognized tag wins; the default is "en".
func paddleLanguage(langs []string) string {
	for _, lang := range langs {
		switch strings.ToLower(lang) {
		case "chi_tra", "chi_sim", "ch", "chinese":
			return "ch"
		case "jpn", "japan":
			return "japan"
		case "kor", "korean":
			return "korean"
		case "eng", "en":
			return "en"
		}
	}
	return "en"
}

// truncate caps a string for inclusion in error messages.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
