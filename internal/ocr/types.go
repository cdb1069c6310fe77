package ocr

import (
	"sort"
	"strings"
)

// Box represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X0, Y0) is the top-left corner
//   - (X1, Y1) is the bottom-right corner
//
// A valid box always satisfies X0 <= X1 and Y0 <= Y1. Boxes are treated as
// immutable once produced by a backend.
type Box struct {
	X0 int `json:"x0"` // Left edge
	Y0 int `json:"y0"` // Top edge
	X1 int `json:"x1"` // Right edge
	Y1 int `json:"y1"` // Bottom edge
}

// Width returns the horizontal extent of the box in pixels.
func (b Box) Width() int { return b.X1 - b.X0 }

// Height returns the vertical extent of the box in pixels.
func (b Box) Height() int { return b.Y1 - b.Y0 }

// Area returns the box area in square pixels.
func (b Box) Area() int { return b.Width() * b.Height() }

// Union returns the minimal axis-aligned box containing both boxes.
func (b Box) Union(other Box) Box {
	return Box{
		X0: minInt(b.X0, other.X0),
		Y0: minInt(b.Y0, other.Y0),
		X1: maxInt(b.X1, other.X1),
		Y1: maxInt(b.Y1, other.Y1),
	}
}

// Overlaps reports whether the two boxes share any area.
func (b Box) Overlaps(other Box) bool {
	return b.X0 < other.X1 && b.X1 > other.X0 && b.Y0 < other.Y1 && b.Y1 > other.Y0
}

// Word is a single recognized word with its location and confidence.
//
// Confidence is always on a 0-100 scale regardless of which backend produced
// the word; adapters normalize at the boundary (PaddleOCR natively emits 0-1).
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Paragraph is a row-adjacent cluster of words in reading order.
//
// Confidence is the mean of the constituent word confidences and Box is the
// bounding union of the constituent word boxes.
type Paragraph struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Words      []Word  `json:"words"`
}

// Block is one grouping level above Paragraph. A degenerate single-block
// structure is produced when no natural grouping is evident.
type Block struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        Box         `json:"box"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Result is the complete outcome of text recognition on one image.
//
// Text is the backend's full-page transcription when available, or the
// concatenation of the included words when the result was reconstructed
// (e.g. by a hybrid merge). Words/Paragraphs/Blocks honor the caller's
// confidence threshold; Text does not.
type Result struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Words      []Word      `json:"words"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Blocks     []Block     `json:"blocks"`

	// Engine identifies the backend (or backends, comma-joined after a
	// hybrid merge) that produced this result.
	Engine string `json:"engine,omitempty"`
}

// Options controls a single recognition call.
type Options struct {
	// Languages holds Tesseract-style language tags (e.g. "eng", "chi_tra").
	// An empty slice means English.
	Languages []string

	// ConfidenceThreshold drops words below this value (0-100) from the
	// structured fields. The raw Text field is never filtered.
	ConfidenceThreshold float64
}

// HasCJK reports whether any requested language is a CJK tag. Chinese,
// Japanese and Korean scripts recognize substantially better under PaddleOCR.
func (o Options) HasCJK() bool {
	for _, lang := range o.Languages {
		tag := strings.ToLower(lang)
		if strings.HasPrefix(tag, "chi") || strings.HasPrefix(tag, "jpn") ||
			strings.HasPrefix(tag, "kor") || strings.HasPrefix(tag, "ch") {
			return true
		}
	}
	return false
}

// meanConfidence averages word confidences; zero for an empty slice.
func meanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

// unionOfWords computes the bounding union over a non-empty word slice.
func unionOfWords(words []Word) Box {
	box := words[0].Box
	for _, w := range words[1:] {
		box = box.Union(w.Box)
	}
	return box
}

// joinWordTexts concatenates word texts with single spaces.
func joinWordTexts(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// sortWordsReadingOrder orders words by Y0, then X0. This is the canonical
// pre-grouping order; grouping is deterministic given sorted input.
func sortWordsReadingOrder(words []Word) {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Box.Y0 != words[j].Box.Y0 {
			return words[i].Box.Y0 < words[j].Box.Y0
		}
		return words[i].Box.X0 < words[j].Box.X0
	})
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
