package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// qualityPreset is the engine configuration a quality tier maps to.
// Higher tiers assume a higher-resolution render and a matching DPI
// hint; all tiers use PSM 6 (uniform text block), which suits page
// scans.
type qualityPreset struct {
	psm int
	dpi int
}

func presetFor(q types.OCRQuality) qualityPreset {
	switch q {
	case types.OCRQualityLow:
		return qualityPreset{psm: 6, dpi: 150}
	case types.OCRQualityMedium:
		return qualityPreset{psm: 6, dpi: 225}
	default:
		return qualityPreset{psm: 6, dpi: 300}
	}
}

// TesseractEngine implements Engine with gosseract. A fresh client is
// created per recognition; the trained data stays loaded in the
// tesseract runtime, so per-call client setup is cheap relative to
// recognition itself.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(req.PNG); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(req.Languages) > 0 {
		if err := c.SetLanguage(req.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	p := presetFor(req.Quality)
	if err := c.SetVariable("tessedit_pageseg_mode", strconv.Itoa(p.psm)); err != nil {
		return "", fmt.Errorf("set psm: %w", err)
	}
	if err := c.SetVariable("user_defined_dpi", strconv.Itoa(p.dpi)); err != nil {
		return "", fmt.Errorf("set dpi: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return PostProcess(text), nil
}
