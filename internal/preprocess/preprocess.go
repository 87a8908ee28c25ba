// Package preprocess enhances rendered page images before OCR:
// grayscale conversion, noise reduction, and binarization, with the
// aggressiveness chosen by the OCR quality tier.
package preprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// maxDimension caps either side of the working image; oversized renders
// are downscaled with a high-quality kernel to bound OCR memory.
const maxDimension = 4000

// Enhance prepares a page image for OCR. The returned image is always
// grayscale; binarization depth depends on the quality tier:
//
//	low    - global threshold
//	medium - Otsu threshold
//	high   - light blur then adaptive mean threshold
func Enhance(img image.Image, quality types.OCRQuality) *image.Gray {
	img = capSize(img)
	gray := toGray(img)

	switch quality {
	case types.OCRQualityLow:
		return threshold(gray, 127)
	case types.OCRQualityMedium:
		return threshold(gray, otsuLevel(gray))
	default:
		blurred := boxBlur3(gray)
		return adaptiveThreshold(blurred, 11, 2)
	}
}

func capSize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDimension && h <= maxDimension {
		return img
	}
	scale := float64(maxDimension) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

func threshold(g *image.Gray, level uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y > level {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// otsuLevel computes the global threshold minimizing intra-class
// variance over the image histogram.
func otsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 127
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	level := uint8(127)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		v := wB * wF * (mB - mF) * (mB - mF)
		if v > maxVar {
			maxVar = v
			level = uint8(t)
		}
	}
	return level
}

// boxBlur3 applies a 3x3 mean filter, the cheap denoise pass before
// adaptive thresholding.
func boxBlur3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < b.Min.X || xx >= b.Max.X || yy < b.Min.Y || yy >= b.Max.Y {
						continue
					}
					sum += int(g.GrayAt(xx, yy).Y)
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return out
}

// adaptiveThreshold binarizes against a windowed local mean minus a
// constant offset, using a summed-area table so the window size does
// not affect cost.
func adaptiveThreshold(g *image.Gray, window, offset int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}
	if window%2 == 0 {
		window++
	}
	r := window / 2

	// integral[y][x] holds the sum over the rectangle [0,0)..(x,y).
	integral := make([][]int64, h+1)
	for i := range integral {
		integral[i] = make([]int64, w+1)
	}
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + row
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-r), max(0, y-r)
			x1, y1 := min(w-1, x+r), min(h-1, y+r)
			area := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / area
			if int64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > mean-int64(offset) {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return out
}
