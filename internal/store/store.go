// Package store is the document store: PDF bytes addressed by a stable
// document id, backed by a flat directory of uploads.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when no document exists for an id.
var ErrNotFound = fmt.Errorf("document not found")

type Info struct {
	DocumentID string `json:"documentId"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// Store keeps uploaded PDFs in a single directory. Document ids are the
// stored filenames; ids never contain path separators.
type Store struct {
	dir string
	log zerolog.Logger
}

func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, log: log.With().Str("component", "store").Logger()}, nil
}

// Path resolves a document id to its on-disk path, rejecting ids that
// escape the store directory.
func (s *Store) Path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, id)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("stat %s: %w", id, err)
	}
	return p, nil
}

// Size reports the byte size of a stored document.
func (s *Store) Size(id string) (int64, error) {
	p, err := s.Path(id)
	if err != nil {
		return 0, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", id, err)
	}
	return fi.Size(), nil
}

// Save persists an uploaded PDF and returns its document id. The id is
// the sanitized original filename prefixed with a short random token so
// repeated uploads of the same name never collide.
func (s *Store) Save(filename string, r io.Reader, maxBytes int64) (string, error) {
	base := sanitizeFilename(filename)
	if base == "" {
		base = "document.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base += ".pdf"
	}
	id := uuid.NewString()[:8] + "_" + base

	f, err := os.Create(filepath.Join(s.dir, id))
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	lr := &io.LimitedReader{R: r, N: maxBytes + 1}
	n, err := io.Copy(f, lr)
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write: %w", err)
	}
	if n > maxBytes {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("PDF exceeds %dMB limit", maxBytes/(1<<20))
	}
	if n < 100 {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("PDF too small (likely invalid)")
	}
	if err := validatePDFMagic(f.Name()); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	s.log.Info().Str("documentId", id).Int64("bytes", n).Msg("document stored")
	return id, nil
}

// List enumerates stored documents, sorted by id.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{DocumentID: e.Name(), SizeBytes: fi.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Delete removes a stored document.
func (s *Store) Delete(id string) error {
	p, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	s.log.Info().Str("documentId", id).Msg("document deleted")
	return nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document id required")
	}
	if strings.ContainsAny(id, "/\\") || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// validatePDFMagic checks that a file starts with %PDF (the PDF magic
// bytes). This catches HTML error pages and other non-PDF uploads that
// would otherwise be misclassified later in the pipeline.
func validatePDFMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for validation: %w", err)
	}
	defer f.Close()

	header := make([]byte, 5)
	n, err := f.Read(header)
	if err != nil || n < 5 {
		return fmt.Errorf("file is too small to be a valid PDF")
	}
	if string(header[:4]) != "%PDF" {
		return fmt.Errorf("file is not a PDF (starts with %q)", string(header[:n]))
	}
	return nil
}
