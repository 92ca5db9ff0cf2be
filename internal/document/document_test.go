package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPDFText(t *testing.T) {
	text, err := ExtractPDFText(filepath.Join("testdata", "announcement.pdf"))
	require.NoError(t, err)
	assert.Contains(t, text, "ABC Infra")
}

func TestExtractPDFTextRejectsNonPDF(t *testing.T) {
	_, err := ExtractPDFText(filepath.Join("testdata", "not-a.pdf"))
	assert.Error(t, err)

	_, err = ExtractPDFText(filepath.Join("testdata", "missing.pdf"))
	assert.Error(t, err)
}

func TestReadTextPlain(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ann.txt")
	require.NoError(t, os.WriteFile(p, []byte("  TCS secures a multi-year deal.\n"), 0o600))

	text, err := ReadText(p)
	require.NoError(t, err)
	assert.Equal(t, "TCS secures a multi-year deal.", text)
}

func TestReadTextEmptyAndTruncated(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o600))
	_, err := ReadText(empty)
	assert.ErrorIs(t, err, ErrNoText)

	long := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(long, []byte(strings.Repeat("a", MaxChars+10)), 0o600))
	text, err := ReadText(long)
	require.NoError(t, err)
	assert.Len(t, text, MaxChars)
}
