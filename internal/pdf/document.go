// Package pdf adapts MuPDF (via go-fitz) behind a small Document
// interface so the extraction pipeline can be exercised without cgo in
// tests, and hosts the text-type detector.
package pdf

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Document is one open PDF. Implementations must be safe for concurrent
// use; page indexes are zero-based.
type Document interface {
	PageCount() int
	// PageText returns the embedded text layer of a page ("" when none).
	PageText(page int) (string, error)
	// RenderPage rasterizes a page at the given scale multiplier over
	// the base render resolution.
	RenderPage(page int, scale float64) (image.Image, error)
	// Metadata returns document-level metadata (title, author,
	// encryption); keys follow the MuPDF naming.
	Metadata() map[string]string
	Close() error
}

// Opener opens documents by path.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// FitzOpener opens documents with MuPDF.
type FitzOpener struct{}

func (FitzOpener) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

// baseRenderDPI is the resolution a scale of 1.0 renders at. Quality
// tiers multiply this (1.0 / 1.5 / 2.0 -> 150 / 225 / 300 DPI).
const baseRenderDPI = 150

// fitzDocument serializes access to the underlying handle: MuPDF
// contexts are not safe for concurrent use.
type fitzDocument struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(page int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	txt, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", page+1, err)
	}
	return txt, nil
}

func (d *fitzDocument) RenderPage(page int, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1.0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	img, err := d.doc.ImageDPI(page, baseRenderDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Metadata() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Metadata()
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}
