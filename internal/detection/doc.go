// Package detection locates table structures in screenshots.
//
// Detection is line-based: the image is binarized into an ink mask, long
// horizontal and vertical runs are extracted by run-length filtering (a
// morphological opening with 1xN and Nx1 kernels), the two line masks are
// OR-combined and dilated to close small gaps, and connected components of
// the combined mask become table candidates. Components that are too small
// or degenerate (extreme aspect ratio slivers) are discarded.
//
// For each candidate the row and column grid is estimated from the detected
// line positions inside its bounding box; when too few interior lines are
// found a coarse uniform grid is assumed instead.
//
// # Coordinate System
//
// All coordinates use the standard image convention: origin (0,0) at the
// top-left corner, X increasing rightward, Y increasing downward. Bounding
// boxes use inclusive top-left and exclusive bottom-right edges.
//
// # Confidence Scores
//
// Each detected table carries a confidence in the 0.5 to 0.95 range derived
// from the fraction of the image area the table occupies: larger tables score
// higher. The score ranks candidates; it is not a calibrated probability.
//
// # Limitations
//
// The detector requires visible ruling lines. Borderless tables laid out
// purely by whitespace are not detected. Detection failures are reported as
// errors and are expected to be recovered by the caller omitting tables from
// its response.
package detection
