package server

import (
	"image"
	"image/color"
	"testing"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/ocr"
)

// makeBlock builds a single-paragraph block whose words have the given box
// height, splitting text into one word per whitespace-separated token.
func makeBlock(text string, wordHeight int) ocr.Block {
	words := []ocr.Word{}
	x := 10
	for _, tok := range splitTokens(text) {
		words = append(words, ocr.Word{
			Text:       tok,
			Confidence: 90,
			Box:        ocr.Box{X0: x, Y0: 10, X1: x + 10*len(tok), Y1: 10 + wordHeight},
		})
		x += 10*len(tok) + 10
	}
	p := ocr.Paragraph{Text: text, Confidence: 90, Words: words}
	if len(words) > 0 {
		p.Box = words[0].Box
		for _, w := range words[1:] {
			p.Box = p.Box.Union(w.Box)
		}
	}
	return ocr.Block{Text: text, Confidence: 90, Box: p.Box, Paragraphs: []ocr.Paragraph{p}}
}

func splitTokens(text string) []string {
	tokens := []string{}
	current := ""
	for _, r := range text {
		if r == ' ' || r == '\n' {
			if current != "" {
				tokens = append(tokens, current)
				current = ""
			}
			continue
		}
		current += string(r)
	}
	if current != "" {
		tokens = append(tokens, current)
	}
	return tokens
}

func TestClassifyBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"bulleted list",
			"- first item\n- second item\n- third item",
			"list",
		},
		{
			"numbered list",
			"1. alpha\n2. beta",
			"list",
		},
		{
			"code",
			"func main() { fmt.Println(os.Args[1]); return }",
			"code",
		},
		{
			"prose paragraph",
			"The quick brown fox jumps over the lazy dog and keeps on running through the field.",
			"paragraph",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := makeBlock(tt.text, 20)
			if got := classifyBlock(b, 20); got != tt.want {
				t.Errorf("classifyBlock: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyBlock_Title(t *testing.T) {
	// Few large words on a single line, against a page of 20px body text.
	title := makeBlock("Quarterly Report", 40)
	if got := classifyBlock(title, 20); got != "title" {
		t.Errorf("classifyBlock: got %s, want title", got)
	}

	// The same text at body size is just a paragraph.
	small := makeBlock("Quarterly Report", 20)
	if got := classifyBlock(small, 20); got != "paragraph" {
		t.Errorf("classifyBlock: got %s, want paragraph", got)
	}
}

func TestAnalyzeContent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	title := makeBlock("Big Header", 40)
	body := makeBlock("Some regular prose text that goes on for a while in one line.", 20)
	result := &ocr.Result{
		Words:  append(append([]ocr.Word{}, title.Paragraphs[0].Words...), body.Paragraphs[0].Words...),
		Blocks: []ocr.Block{title, body},
	}

	analysis := AnalyzeContent(img, result)

	if len(analysis.Blocks) != 2 {
		t.Fatalf("Blocks: got %d, want 2", len(analysis.Blocks))
	}
	if analysis.Summary["title"] != 1 {
		t.Errorf("Summary[title]: got %d, want 1", analysis.Summary["title"])
	}
	if analysis.Summary["paragraph"] != 1 {
		t.Errorf("Summary[paragraph]: got %d, want 1", analysis.Summary["paragraph"])
	}
	if len(analysis.Palette) == 0 {
		t.Error("Palette should not be empty")
	}
	if analysis.Palette[0].Hex != "#FFFFFF" {
		t.Errorf("Dominant color: got %s, want #FFFFFF", analysis.Palette[0].Hex)
	}
}

func TestAnalyzeContent_EmptyResult(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	analysis := AnalyzeContent(img, &ocr.Result{})

	if len(analysis.Blocks) != 0 {
		t.Errorf("Blocks: got %d, want 0", len(analysis.Blocks))
	}
}
