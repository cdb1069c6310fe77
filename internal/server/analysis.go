package server

import (
	"image"
	"regexp"
	"strings"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/imaging"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/ocr"
)

// ContentAnalysis summarizes what kind of content a screenshot contains.
type ContentAnalysis struct {
	// Blocks carries each recognized text block with its classified type.
	Blocks []ClassifiedBlock `json:"blocks"`

	// Summary counts blocks per classified type.
	Summary map[string]int `json:"summary"`

	// Palette is the screenshot's dominant-color palette.
	Palette []imaging.PaletteColor `json:"palette"`
}

// ClassifiedBlock is a text block annotated with a content type.
type ClassifiedBlock struct {
	// Type is one of "title", "paragraph", "list" or "code".
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        ocr.Box `json:"box"`
}

var listMarker = regexp.MustCompile(`^\s*([-*•‣▪◦]|\d+[.)])\s+`)

// AnalyzeContent classifies each OCR block and extracts the dominant colors.
//
// Classification is heuristic: relative text height separates titles from
// body text, leading markers identify lists, and a high density of
// punctuation typical of source code identifies code blocks.
func AnalyzeContent(img image.Image, result *ocr.Result) ContentAnalysis {
	analysis := ContentAnalysis{
		Blocks:  make([]ClassifiedBlock, 0, len(result.Blocks)),
		Summary: make(map[string]int),
		Palette: imaging.DominantColors(img, 5),
	}

	avgHeight := averageWordHeight(result.Words)
	for _, b := range result.Blocks {
		t := classifyBlock(b, avgHeight)
		analysis.Blocks = append(analysis.Blocks, ClassifiedBlock{
			Type:       t,
			Text:       b.Text,
			Confidence: b.Confidence,
			Box:        b.Box,
		})
		analysis.Summary[t]++
	}
	return analysis
}

// classifyBlock assigns a content type to one block.
func classifyBlock(b ocr.Block, avgWordHeight float64) string {
	lines := strings.Split(b.Text, "\n")

	marked := 0
	for _, line := range lines {
		if listMarker.MatchString(line) {
			marked++
		}
	}
	if len(lines) >= 2 && marked*2 >= len(lines) {
		return "list"
	}

	if looksLikeCode(b.Text) {
		return "code"
	}

	// A short single line rendered noticeably larger than the page's average
	// word height reads as a heading.
	if len(lines) == 1 && avgWordHeight > 0 {
		words := strings.Fields(b.Text)
		height := blockWordHeight(b)
		if len(words) > 0 && len(words) <= 8 && height > avgWordHeight*1.25 {
			return "title"
		}
	}

	return "paragraph"
}

// looksLikeCode reports whether text has the punctuation density of source
// code rather than prose.
func looksLikeCode(text string) bool {
	if len(text) < 20 {
		return false
	}
	symbols := 0
	for _, r := range text {
		switch r {
		case '{', '}', '(', ')', '[', ']', ';', '=', '<', '>', '/', '\\', '|', '_':
			symbols++
		}
	}
	return float64(symbols)/float64(len(text)) > 0.08
}

// averageWordHeight returns the mean bounding-box height of all words.
func averageWordHeight(words []ocr.Word) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += w.Box.Height()
	}
	return float64(total) / float64(len(words))
}

// blockWordHeight returns the mean word height within one block.
func blockWordHeight(b ocr.Block) float64 {
	total, n := 0, 0
	for _, p := range b.Paragraphs {
		for _, w := range p.Words {
			total += w.Box.Height()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
