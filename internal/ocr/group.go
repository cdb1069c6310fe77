package ocr

import "sort"

// Grouper clusters words into paragraphs and paragraphs into blocks by
// vertical proximity.
//
// The algorithm is a single pass over words sorted by (Y0, X0): a new
// paragraph starts whenever the vertical gap between consecutive words'
// top edges exceeds GapRatio times the previous word's box height. Within a
// paragraph, words are re-sorted by X0 for reading order. Given an identical
// word set the grouping is fully deterministic.
type Grouper struct {
	// GapRatio is the fraction of the previous word's height that a vertical
	// gap must exceed to start a new paragraph. Typical range 0.5-0.8.
	GapRatio float64
}

// NewGrouper returns a Grouper with the given gap ratio. Non-positive values
// fall back to 0.6.
func NewGrouper(gapRatio float64) *Grouper {
	if gapRatio <= 0 {
		gapRatio = 0.6
	}
	return &Grouper{GapRatio: gapRatio}
}

// GroupIntoParagraphs clusters words into paragraphs. The input slice is not
// modified; words are copied before sorting.
func (g *Grouper) GroupIntoParagraphs(words []Word) []Paragraph {
	if len(words) == 0 {
		return []Paragraph{}
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sortWordsReadingOrder(sorted)

	paragraphs := make([]Paragraph, 0, 4)
	current := []Word{sorted[0]}

	for _, w := range sorted[1:] {
		prev := current[len(current)-1]
		gap := w.Box.Y0 - prev.Box.Y0
		limit := float64(prev.Box.Height()) * g.GapRatio
		if float64(gap) > limit {
			paragraphs = append(paragraphs, buildParagraph(current))
			current = []Word{w}
			continue
		}
		current = append(current, w)
	}
	paragraphs = append(paragraphs, buildParagraph(current))

	return paragraphs
}

// GroupIntoBlocks applies the same proximity clustering one level up, over
// paragraph bounding boxes. When only one paragraph exists the result is the
// degenerate single-block structure.
func (g *Grouper) GroupIntoBlocks(paragraphs []Paragraph) []Block {
	if len(paragraphs) == 0 {
		return []Block{}
	}

	blocks := make([]Block, 0, 2)
	current := []Paragraph{paragraphs[0]}

	for _, p := range paragraphs[1:] {
		prev := current[len(current)-1]
		gap := p.Box.Y0 - prev.Box.Y1
		limit := float64(prev.Box.Height()) * g.GapRatio
		if float64(gap) > limit {
			blocks = append(blocks, buildBlock(current))
			current = []Paragraph{p}
			continue
		}
		current = append(current, p)
	}
	blocks = append(blocks, buildBlock(current))

	return blocks
}

// buildParagraph assembles a Paragraph from a non-empty word cluster,
// re-sorting words by X0 for reading order within the row group.
func buildParagraph(words []Word) Paragraph {
	ordered := make([]Word, len(words))
	copy(ordered, words)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Box.X0 < ordered[j].Box.X0
	})

	return Paragraph{
		Text:       joinWordTexts(ordered),
		Confidence: meanConfidence(ordered),
		Box:        unionOfWords(ordered),
		Words:      ordered,
	}
}

// buildBlock assembles a Block from a non-empty paragraph cluster.
func buildBlock(paragraphs []Paragraph) Block {
	texts := make([]string, len(paragraphs))
	box := paragraphs[0].Box
	var sum float64
	for i, p := range paragraphs {
		texts[i] = p.Text
		box = box.Union(p.Box)
		sum += p.Confidence
	}

	text := texts[0]
	for _, t := range texts[1:] {
		text += "\n" + t
	}

	return Block{
		Text:       text,
		Confidence: sum / float64(len(paragraphs)),
		Box:        box,
		Paragraphs: paragraphs,
	}
}
