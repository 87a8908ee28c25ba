package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// syntheticPage draws dark "text" pixels on a light background.
func syntheticPage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(220)
			if (x/4+y/4)%5 == 0 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func binaryOnly(t *testing.T, img *image.Gray) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			require.True(t, v == 0 || v == 255, "pixel (%d,%d) = %d is not binary", x, y, v)
		}
	}
}

func TestEnhanceBinarizesAllTiers(t *testing.T) {
	src := syntheticPage(64, 64)
	for _, q := range []types.OCRQuality{types.OCRQualityLow, types.OCRQualityMedium, types.OCRQualityHigh} {
		t.Run(string(q), func(t *testing.T) {
			out := Enhance(src, q)
			require.NotNil(t, out)
			assert.Equal(t, src.Bounds(), out.Bounds())
			binaryOnly(t, out)
		})
	}
}

func TestEnhancePreservesForegroundBackgroundSplit(t *testing.T) {
	src := syntheticPage(64, 64)
	out := Enhance(src, types.OCRQualityMedium)

	var dark, light int
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if out.GrayAt(x, y).Y == 0 {
				dark++
			} else {
				light++
			}
		}
	}
	assert.Greater(t, dark, 0, "text pixels must survive binarization")
	assert.Greater(t, light, dark, "background must dominate a page image")
}

func TestEnhanceCapsOversizedImages(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, maxDimension+500, 100))
	out := Enhance(src, types.OCRQualityLow)
	assert.LessOrEqual(t, out.Bounds().Dx(), maxDimension)
}

func TestOtsuLevelSeparatesModes(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				img.SetGray(x, y, color.Gray{Y: 40})
			} else {
				img.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}
	level := otsuLevel(img)
	assert.GreaterOrEqual(t, level, uint8(40))
	assert.Less(t, level, uint8(200))
}
