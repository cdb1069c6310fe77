// Package imaging provides image loading, statistics and adaptive
// preprocessing for the OCR pipeline.
//
// The package measures per-image intensity statistics (brightness as the
// mean, contrast as the standard deviation) and classifies each image as
// low-contrast, high-noise or normal. The Preprocessor selects one of three
// cleanup pipelines from that classification before recognition runs.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Statistics Soft Failure
//
// Statistics computation never fails an analysis: when an image cannot be
// measured the analyzer logs a warning and substitutes neutral defaults
// (brightness 128, contrast 50), which select the standard pipeline.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The Preprocessor and
// StatsAnalyzer are stateless after construction and can be shared freely.
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid
// redundant disk reads. Large images may consume significant memory when
// cached; use Evict() or Clear() for long-running processes. DominantColors
// samples large images on a stride to bound its cost.
package imaging
