package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
)

// Box represents a rectangular bounding box in pixel coordinates.
type Box struct {
	X0 int `json:"x0"` // Left edge
	Y0 int `json:"y0"` // Top edge
	X1 int `json:"x1"` // Right edge
	Y1 int `json:"y1"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TableCell is one cell of a detected table grid.
//
// Text is left empty by the detector; callers may fill it afterwards by
// spatially intersecting OCR words with the cell box.
type TableCell struct {
	Text    string `json:"text"`
	Box     Box    `json:"box"`
	RowSpan int    `json:"rowspan"`
	ColSpan int    `json:"colspan"`
}

// Table is a detected table region with its estimated row/column grid.
type Table struct {
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Box        Box           `json:"box"`
	Cells      [][]TableCell `json:"cells"`
	Confidence float64       `json:"confidence"`
}

// TablesResult contains all tables detected in an image.
type TablesResult struct {
	Tables      []Table `json:"tables"`
	TotalTables int     `json:"total_tables"`
}

// Detector finds table-like structures through morphological line detection.
//
// The approach mirrors the classic OpenCV recipe: binarize, isolate long
// horizontal and vertical runs (morphological opening with long thin
// kernels), combine the two line masks, extract contours above a minimum
// area, reject almost-1D slivers, and estimate each survivor's row/column
// grid from the positions of the detected interior lines. Detection is
// independent of OCR and shares no state with the recognition backends.
type Detector struct {
	// DarkLevel is the grayscale level below which a pixel counts as ink.
	// Zero means 128.
	DarkLevel uint8

	// MinLineFraction is the minimum length of a detected line as a
	// fraction of the image dimension. Zero means 0.05 (5%).
	MinLineFraction float64

	// MinArea is the minimum contour area in pixels for a table candidate.
	// Zero means 2500.
	MinArea int

	// MaxAspect rejects sliver contours whose long side exceeds this
	// multiple of the short side. Zero means 25.
	MaxAspect float64
}

// NewDetector returns a Detector with the default tuning.
func NewDetector() *Detector {
	return &Detector{
		DarkLevel:       128,
		MinLineFraction: 0.05,
		MinArea:         2500,
		MaxAspect:       25,
	}
}

// DetectTables finds table regions and their grids in an image.
//
// A photo with no grid-like structures yields TotalTables == 0.
func (d *Detector) DetectTables(img image.Image) (*TablesResult, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty image bounds")
	}

	ink := d.inkMask(img, width, height)

	minHLen := int(float64(width) * d.minLineFraction())
	minVLen := int(float64(height) * d.minLineFraction())
	if minHLen < 20 {
		minHLen = 20
	}
	if minVLen < 20 {
		minVLen = 20
	}

	hMask := horizontalRuns(ink, width, height, minHLen)
	vMask := verticalRuns(ink, width, height, minVLen)

	combined := combineMasks(hMask, vMask, width, height)
	combined = closeGaps(combined, width, height)

	contours := findContours(combined, width, height)

	tables := make([]Table, 0)
	for _, contour := range contours {
		box := contourBounds(contour)
		w := box.X1 - box.X0
		h := box.Y1 - box.Y0
		if w*h < d.minArea() {
			continue
		}
		if isSliver(w, h, d.maxAspect()) {
			continue
		}

		rows, cols, rowEdges, colEdges := estimateGrid(hMask, vMask, box)
		cells := buildCellGrid(rowEdges, colEdges)

		tables = append(tables, Table{
			Rows:       rows,
			Cols:       cols,
			Box:        box,
			Cells:      cells,
			Confidence: areaConfidence(w*h, width*height),
		})
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Box.Y0 < tables[j].Box.Y0
	})

	return &TablesResult{Tables: tables, TotalTables: len(tables)}, nil
}

func (d *Detector) darkLevel() uint8 {
	if d.DarkLevel == 0 {
		return 128
	}
	return d.DarkLevel
}

func (d *Detector) minLineFraction() float64 {
	if d.MinLineFraction <= 0 {
		return 0.05
	}
	return d.MinLineFraction
}

func (d *Detector) minArea() int {
	if d.MinArea <= 0 {
		return 2500
	}
	return d.MinArea
}

func (d *Detector) maxAspect() float64 {
	if d.MaxAspect <= 0 {
		return 25
	}
	return d.MaxAspect
}

// inkMask marks pixels darker than the threshold.
func (d *Detector) inkMask(img image.Image, width, height int) [][]bool {
	bounds := img.Bounds()
	level := d.darkLevel()

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if grayValue(img, x+bounds.Min.X, y+bounds.Min.Y) < level {
				mask[y][x] = true
			}
		}
	}
	return mask
}

// horizontalRuns keeps only pixels that belong to a horizontal ink run of at
// least minLen pixels. This is equivalent to a morphological opening with a
// 1×minLen structuring element.
func horizontalRuns(ink [][]bool, width, height, minLen int) [][]bool {
	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		out[y] = make([]bool, width)
		runStart := -1
		for x := 0; x <= width; x++ {
			inRun := x < width && ink[y][x]
			if inRun && runStart < 0 {
				runStart = x
			}
			if !inRun && runStart >= 0 {
				if x-runStart >= minLen {
					for i := runStart; i < x; i++ {
						out[y][i] = true
					}
				}
				runStart = -1
			}
		}
	}
	return out
}

// verticalRuns is the transpose of horizontalRuns: a minLen×1 opening.
func verticalRuns(ink [][]bool, width, height, minLen int) [][]bool {
	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		out[y] = make([]bool, width)
	}
	for x := 0; x < width; x++ {
		runStart := -1
		for y := 0; y <= height; y++ {
			inRun := y < height && ink[y][x]
			if inRun && runStart < 0 {
				runStart = y
			}
			if !inRun && runStart >= 0 {
				if y-runStart >= minLen {
					for i := runStart; i < y; i++ {
						out[i][x] = true
					}
				}
				runStart = -1
			}
		}
	}
	return out
}

// combineMasks ORs the horizontal and vertical line masks.
func combineMasks(a, b [][]bool, width, height int) [][]bool {
	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		out[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			out[y][x] = a[y][x] || b[y][x]
		}
	}
	return out
}

// closeGaps dilates the mask by one pixel so hairline breaks between the
// horizontal and vertical strokes do not split a table frame into several
// contours.
func closeGaps(mask [][]bool, width, height int) [][]bool {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] {
				gray.Pix[y*gray.Stride+x] = 255
			}
		}
	}

	dilated := effect.Dilate(gray, 1)

	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		out[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			r, _, _, _ := dilated.At(x, y).RGBA()
			out[y][x] = r>>8 > 127
		}
	}
	return out
}

// findContours finds connected components in a binary mask using iterative
// flood-fill with 8-connectivity. Components smaller than 10 pixels are
// discarded as noise.
func findContours(mask [][]bool, width, height int) [][]Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] && !visited[y][x] {
				contour := make([]Point, 0)
				floodFill(mask, visited, x, y, width, height, &contour)
				if len(contour) >= 10 {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill performs stack-based flood-fill from a starting point, marking
// visited pixels and appending them to the contour.
func floodFill(mask, visited [][]bool, startX, startY, width, height int, contour *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*contour = append(*contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// contourBounds computes the bounding box of a contour.
func contourBounds(contour []Point) Box {
	box := Box{X0: contour[0].X, Y0: contour[0].Y, X1: contour[0].X, Y1: contour[0].Y}
	for _, p := range contour[1:] {
		if p.X < box.X0 {
			box.X0 = p.X
		}
		if p.X > box.X1 {
			box.X1 = p.X
		}
		if p.Y < box.Y0 {
			box.Y0 = p.Y
		}
		if p.Y > box.Y1 {
			box.Y1 = p.Y
		}
	}
	return box
}

// isSliver reports whether a w×h region is effectively one-dimensional.
func isSliver(w, h int, maxAspect float64) bool {
	if w == 0 || h == 0 {
		return true
	}
	long := float64(w)
	short := float64(h)
	if short > long {
		long, short = short, long
	}
	return long/short > maxAspect
}

// estimateGrid derives the row/column structure of a table region from the
// positions of the interior horizontal and vertical lines. Adjacent line
// rows/columns within 3px are clustered into a single separator. When too
// few separators are present to form a grid, a coarse 3×3 estimate is used.
func estimateGrid(hMask, vMask [][]bool, box Box) (rows, cols int, rowEdges, colEdges []int) {
	hPositions := lineRows(hMask, box)
	vPositions := lineCols(vMask, box)

	rowEdges = clusterPositions(hPositions, 3)
	colEdges = clusterPositions(vPositions, 3)

	if len(rowEdges) < 2 {
		rowEdges = uniformEdges(box.Y0, box.Y1, 3)
	}
	if len(colEdges) < 2 {
		colEdges = uniformEdges(box.X0, box.X1, 3)
	}

	return len(rowEdges) - 1, len(colEdges) - 1, rowEdges, colEdges
}

// lineRows collects the y positions of rows that contain a significant
// horizontal line segment inside the box.
func lineRows(hMask [][]bool, box Box) []int {
	minSpan := (box.X1 - box.X0) / 2
	positions := make([]int, 0)
	for y := box.Y0; y <= box.Y1 && y < len(hMask); y++ {
		count := 0
		for x := box.X0; x <= box.X1 && x < len(hMask[y]); x++ {
			if hMask[y][x] {
				count++
			}
		}
		if count >= minSpan {
			positions = append(positions, y)
		}
	}
	return positions
}

// lineCols collects the x positions of columns that contain a significant
// vertical line segment inside the box.
func lineCols(vMask [][]bool, box Box) []int {
	minSpan := (box.Y1 - box.Y0) / 2
	positions := make([]int, 0)
	if len(vMask) == 0 {
		return positions
	}
	for x := box.X0; x <= box.X1 && x < len(vMask[0]); x++ {
		count := 0
		for y := box.Y0; y <= box.Y1 && y < len(vMask); y++ {
			if vMask[y][x] {
				count++
			}
		}
		if count >= minSpan {
			positions = append(positions, x)
		}
	}
	return positions
}

// clusterPositions folds consecutive positions within gap pixels of each
// other into their midpoint, turning thick strokes into single separators.
func clusterPositions(positions []int, gap int) []int {
	if len(positions) == 0 {
		return nil
	}
	edges := make([]int, 0, 4)
	start := positions[0]
	prev := positions[0]
	for _, p := range positions[1:] {
		if p-prev > gap {
			edges = append(edges, (start+prev)/2)
			start = p
		}
		prev = p
	}
	edges = append(edges, (start+prev)/2)
	return edges
}

// uniformEdges divides [lo, hi] into n equal bands, returning n+1 edges.
func uniformEdges(lo, hi, n int) []int {
	edges := make([]int, n+1)
	for i := 0; i <= n; i++ {
		edges[i] = lo + (hi-lo)*i/n
	}
	return edges
}

// buildCellGrid constructs the cell matrix between adjacent separator edges.
func buildCellGrid(rowEdges, colEdges []int) [][]TableCell {
	rows := len(rowEdges) - 1
	cols := len(colEdges) - 1
	if rows < 1 || cols < 1 {
		return [][]TableCell{}
	}

	grid := make([][]TableCell, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]TableCell, cols)
		for c := 0; c < cols; c++ {
			grid[r][c] = TableCell{
				Box: Box{
					X0: colEdges[c],
					Y0: rowEdges[r],
					X1: colEdges[c+1],
					Y1: rowEdges[r+1],
				},
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return grid
}

// areaConfidence maps contour area to a crude confidence score.
func areaConfidence(area, imageArea int) float64 {
	if imageArea == 0 {
		return 0
	}
	frac := float64(area) / float64(imageArea)
	conf := 0.5 + frac*2
	conf = math.Min(conf, 0.95)
	return math.Round(conf*100) / 100
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114)
}
