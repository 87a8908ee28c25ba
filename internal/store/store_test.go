package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func pdfBytes(size int) []byte {
	b := []byte("%PDF-1.7\n")
	return append(b, bytes.Repeat([]byte("x"), size-len(b))...)
}

func TestSaveAndPath(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Save("report.pdf", bytes.NewReader(pdfBytes(500)), 1<<20)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "_report.pdf"))

	p, err := s.Path(id)
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	size, err := s.Size(id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), size)
}

func TestSaveSanitizesFilename(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Save("../../etc/pass wd!.pdf", bytes.NewReader(pdfBytes(500)), 1<<20)
	require.NoError(t, err)
	assert.NotContains(t, id, "/")
	assert.NotContains(t, id, " ")
	assert.True(t, strings.HasSuffix(id, ".pdf"))
}

func TestSaveAppendsExtension(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Save("document", bytes.NewReader(pdfBytes(500)), 1<<20)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, ".pdf"))
}

func TestSaveRejectsNonPDF(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("fake.pdf", strings.NewReader(strings.Repeat("<html>not a pdf</html>", 20)), 1<<20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")

	docs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, docs, "rejected upload must not leave a file behind")
}

func TestSaveRejectsTooSmall(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("tiny.pdf", strings.NewReader("%PDF"), 1<<20)
	require.Error(t, err)
}

func TestSaveRejectsOversized(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("big.pdf", bytes.NewReader(pdfBytes(2048)), 1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Save("a.pdf", bytes.NewReader(pdfBytes(500)), 1<<20)
	require.NoError(t, err)
	b, err := s.Save("b.pdf", bytes.NewReader(pdfBytes(600)), 1<<20)
	require.NoError(t, err)

	docs, err := s.List()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Less(t, docs[0].DocumentID, docs[1].DocumentID, "listing must be sorted")

	require.NoError(t, s.Delete(a))
	docs, err = s.List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, b, docs[0].DocumentID)

	err = s.Delete(a)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPathRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"", "../secret.pdf", "a/b.pdf", ".hidden.pdf", `a\b.pdf`} {
		_, err := s.Path(id)
		assert.Error(t, err, id)
	}
}

func TestPathNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Path("missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
