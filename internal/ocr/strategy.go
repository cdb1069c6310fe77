package ocr

import (
	"context"
	"log"
	"sync"
)

// Strategy decides which backend(s) handle a recognition request and how
// their outputs are reconciled.
//
// Policy:
//   - CJK language tags prefer PaddleOCR as primary with Tesseract as a
//     secondary whose output is merged (not just a failover).
//   - Otherwise Tesseract runs alone; the subprocess backend stays in the
//     fallback chain but is not invoked up front.
//   - Source files above SizeLimit restrict the request to a single backend,
//     trading accuracy for a latency/resource bound.
//   - A backend failure falls through to the next candidate in priority
//     order; exhausting all candidates yields NoBackendAvailableError.
//
// Availability probes run lazily and are cached for the lifetime of the
// strategy instance, not per call.
type Strategy struct {
	// Tesseract is the in-process worker backend. Required.
	Tesseract Backend

	// Paddle is the subprocess backend. May be nil when not configured.
	Paddle Backend

	// SizeLimit is the source-file size in bytes above which only a single
	// backend runs. Zero means 5MB.
	SizeLimit int64

	mu    sync.Mutex
	avail map[string]bool
}

// NewStrategy builds a selection strategy over the given backends.
func NewStrategy(tesseract, paddle Backend, sizeLimit int64) *Strategy {
	if sizeLimit <= 0 {
		sizeLimit = 5 * 1024 * 1024
	}
	return &Strategy{
		Tesseract: tesseract,
		Paddle:    paddle,
		SizeLimit: sizeLimit,
		avail:     make(map[string]bool),
	}
}

// available returns the cached availability of a backend, probing on first
// use. A nil backend is never available.
func (s *Strategy) available(b Backend) bool {
	if b == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, cached := s.avail[b.Name()]; cached {
		return ok
	}
	ok := b.IsAvailable()
	s.avail[b.Name()] = ok
	return ok
}

// plan returns the priority-ordered candidate list and whether a dual-backend
// hybrid merge is wanted.
func (s *Strategy) plan(opts Options, fileSize int64) (candidates []Backend, dual bool) {
	if opts.HasCJK() {
		candidates = []Backend{s.Paddle, s.Tesseract}
		dual = fileSize <= s.SizeLimit
	} else {
		candidates = []Backend{s.Tesseract, s.Paddle}
	}
	return candidates, dual
}

// Run executes the selection policy over a preprocessed image buffer.
func (s *Strategy) Run(ctx context.Context, imageData []byte, opts Options, fileSize int64, merger *Merger) (*Result, error) {
	candidates, dual := s.plan(opts, fileSize)

	attempts := make([]error, 0, 2)
	usable := make([]Backend, 0, len(candidates))
	for _, b := range candidates {
		if b == nil {
			continue
		}
		if !s.available(b) {
			attempts = append(attempts, &BackendUnavailableError{Backend: b.Name(), Reason: "availability probe failed"})
			continue
		}
		usable = append(usable, b)
	}

	if dual && len(usable) >= 2 {
		result, err := s.runDual(ctx, usable[0], usable[1], imageData, opts, merger)
		if result != nil {
			return result, nil
		}
		attempts = append(attempts, err)
		usable = usable[2:]
	}

	for _, b := range usable {
		result, err := b.Recognize(ctx, imageData, opts)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("backend %s failed, trying next: %v", b.Name(), err)
		attempts = append(attempts, err)
	}

	return nil, &NoBackendAvailableError{Attempts: attempts}
}

// runDual invokes primary and secondary in parallel and merges their output.
// The two recognitions are independent, so there is no ordering dependency.
// If only one succeeds its result is returned alone; if both fail the
// combined error is returned.
func (s *Strategy) runDual(ctx context.Context, primary, secondary Backend, imageData []byte, opts Options, merger *Merger) (*Result, error) {
	type outcome struct {
		result *Result
		err    error
	}

	primaryCh := make(chan outcome, 1)
	secondaryCh := make(chan outcome, 1)

	go func() {
		r, err := primary.Recognize(ctx, imageData, opts)
		primaryCh <- outcome{r, err}
	}()
	go func() {
		r, err := secondary.Recognize(ctx, imageData, opts)
		secondaryCh <- outcome{r, err}
	}()

	p := <-primaryCh
	sec := <-secondaryCh

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	switch {
	case p.err == nil && sec.err == nil:
		return merger.Merge(p.result, sec.result, MergeHybrid), nil
	case p.err == nil:
		log.Printf("secondary backend %s failed, using primary alone: %v", secondary.Name(), sec.err)
		return p.result, nil
	case sec.err == nil:
		log.Printf("primary backend %s failed, using secondary alone: %v", primary.Name(), p.err)
		return sec.result, nil
	default:
		return nil, &BackendExecutionError{Backend: primary.Name() + "+" + secondary.Name(), Err: p.err}
	}
}
