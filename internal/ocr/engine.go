// Package ocr wraps optical character recognition behind a single
// Engine contract, with Tesseract as the default provider.
package ocr

import (
	"context"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// Request is one image submitted for recognition.
type Request struct {
	// PNG is the encoded page image.
	PNG []byte
	// Languages is the tesseract trained-data set, e.g. ["eng","hin","mar"].
	Languages []string
	// Quality selects the engine configuration preset.
	Quality types.OCRQuality
}

// Engine is the OCR provider contract: one image in, plain text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (string, error)
}
