package ocr

import (
	"fmt"
	"sort"
	"strings"
)

// MergeStrategy selects how two backend results are reconciled.
type MergeStrategy string

const (
	// MergePrimary returns the primary result verbatim when present,
	// otherwise the secondary.
	MergePrimary MergeStrategy = "primary"

	// MergeBestConfidence compares whole-result confidence and returns the
	// higher-scoring result.
	MergeBestConfidence MergeStrategy = "bestConfidence"

	// MergeHybrid performs a word-level spatial merge: overlapping
	// detections are resolved by confidence and the paragraph/block
	// structure is rebuilt from scratch over the merged word set.
	MergeHybrid MergeStrategy = "hybrid"
)

// Merger reconciles results from multiple backends.
type Merger struct {
	// BucketSize is the spatial quantization in pixels used to match word
	// detections from different backends. Word origins are rounded to the
	// nearest multiple of BucketSize; words from both sources landing in the
	// same bucket are considered the same detection.
	BucketSize int

	grouper *Grouper
}

// NewMerger returns a Merger using the given spatial bucket size and grouper.
// Non-positive bucket sizes fall back to 10px.
func NewMerger(bucketSize int, grouper *Grouper) *Merger {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &Merger{BucketSize: bucketSize, grouper: grouper}
}

// Merge combines primary and secondary according to the strategy. Either
// input may be nil; if both are nil, nil is returned.
func (m *Merger) Merge(primary, secondary *Result, strategy MergeStrategy) *Result {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}

	switch strategy {
	case MergeBestConfidence:
		if secondary.Confidence > primary.Confidence {
			return secondary
		}
		return primary
	case MergeHybrid:
		return m.mergeHybrid(primary, secondary)
	default:
		return primary
	}
}

// mergeHybrid buckets words from both results by rounded box origin, keeps the
// higher-confidence word from each contested bucket, and rebuilds paragraphs
// and blocks over the merged set. Grouping is recomputed rather than unioned:
// the merged words may have gaps inconsistent with either original grouping.
func (m *Merger) mergeHybrid(primary, secondary *Result) *Result {
	buckets := make(map[string]Word, len(primary.Words)+len(secondary.Words))

	for _, w := range primary.Words {
		buckets[m.bucketKey(w.Box)] = w
	}
	for _, w := range secondary.Words {
		key := m.bucketKey(w.Box)
		if existing, ok := buckets[key]; !ok || w.Confidence > existing.Confidence {
			buckets[key] = w
		}
	}

	merged := make([]Word, 0, len(buckets))
	for _, w := range buckets {
		merged = append(merged, w)
	}
	sortWordsReadingOrder(merged)

	paragraphs := m.grouper.GroupIntoParagraphs(merged)
	blocks := m.grouper.GroupIntoBlocks(paragraphs)

	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}

	engines := joinEngines(primary.Engine, secondary.Engine)

	return &Result{
		Text:       strings.Join(texts, "\n"),
		Confidence: meanConfidence(merged),
		Words:      merged,
		Paragraphs: paragraphs,
		Blocks:     blocks,
		Engine:     engines,
	}
}

// bucketKey quantizes a box origin to the merger's spatial grid.
func (m *Merger) bucketKey(b Box) string {
	bx := (b.X0 + m.BucketSize/2) / m.BucketSize
	by := (b.Y0 + m.BucketSize/2) / m.BucketSize
	return fmt.Sprintf("%d:%d", bx, by)
}

// joinEngines merges engine labels, dropping duplicates and empties while
// keeping a stable order.
func joinEngines(labels ...string) string {
	seen := make(map[string]bool, len(labels))
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		for _, p := range strings.Split(l, ",") {
			p = strings.TrimSpace(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			parts = append(parts, p)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
