package imaging

import (
	"fmt"
	"image"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteColor is one entry of a dominant-color palette.
type PaletteColor struct {
	// Hex is the color in "#RRGGBB" format.
	Hex string `json:"hex"`

	// Fraction is the share of sampled pixels attributed to this color
	// (0.0 to 1.0) after perceptual merging.
	Fraction float64 `json:"fraction"`
}

// DominantColors extracts the count most dominant colors of an image.
//
// Pixels are quantized to a coarse RGB grid and counted, then buckets that
// are perceptually close (CIE Lab distance) are merged so near-identical
// shades do not occupy several palette slots. Large images are sampled on a
// stride to bound the cost.
func DominantColors(img image.Image, count int) []PaletteColor {
	if count <= 0 {
		count = 5
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return []PaletteColor{}
	}

	// Sample on a stride that caps the work at roughly 256x256 pixels.
	stride := 1
	if width*height > 256*256 {
		stride = (width*height)/(256*256) + 1
	}

	type bucket struct {
		r, g, b uint32
		n       int
	}
	buckets := make(map[uint32]*bucket)

	sampled := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			r8, g8, b8 := r>>8, g>>8, b>>8
			// 4 bits per channel quantization key.
			key := (r8>>4)<<8 | (g8>>4)<<4 | (b8 >> 4)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.r += r8
			bk.g += g8
			bk.b += b8
			bk.n++
			sampled++
		}
	}

	type entry struct {
		color colorful.Color
		n     int
	}
	entries := make([]entry, 0, len(buckets))
	for _, bk := range buckets {
		entries = append(entries, entry{
			color: colorful.Color{
				R: float64(bk.r/uint32(bk.n)) / 255.0,
				G: float64(bk.g/uint32(bk.n)) / 255.0,
				B: float64(bk.b/uint32(bk.n)) / 255.0,
			},
			n: bk.n,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].n > entries[j].n })

	// Perceptual merge: fold each bucket into the first kept color within a
	// small Lab distance, largest buckets first.
	const mergeDistance = 0.08
	kept := make([]entry, 0, count)
	for _, e := range entries {
		merged := false
		for i := range kept {
			if kept[i].color.DistanceLab(e.color) < mergeDistance {
				kept[i].n += e.n
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, e)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].n > kept[j].n })
	if len(kept) > count {
		kept = kept[:count]
	}

	palette := make([]PaletteColor, len(kept))
	for i, e := range kept {
		r, g, b := e.color.RGB255()
		palette[i] = PaletteColor{
			Hex:      fmt.Sprintf("#%02X%02X%02X", r, g, b),
			Fraction: float64(e.n) / float64(sampled),
		}
	}
	return palette
}
