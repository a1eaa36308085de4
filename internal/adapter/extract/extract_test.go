package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{name: "notes.pdf", want: KindPDF},
		{name: "Essay.DOCX", want: KindDOCX},
		{name: "readme.txt", want: KindText},
		{name: "notes.md", want: KindText},
		{name: "pdf", want: KindPDF},
		{name: "archive.tar.gz", wantErr: true},
		{name: "image.png", wantErr: true},
	}
	for _, tt := range tests {
		got, err := DetectKind(tt.name)
		if tt.wantErr {
			require.Error(t, err, tt.name)
			assert.True(t, errors.Is(err, ErrUnsupportedFormat), "want ErrUnsupportedFormat for %s", tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestExtract_PlainText(t *testing.T) {
	got, err := New().Extract(context.Background(), []byte("hello notes\nsecond line"), KindText)
	require.NoError(t, err)
	assert.Equal(t, "hello notes\nsecond line", got)
}

// buildDOCX assembles a minimal valid .docx container in memory.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)
	_, err = w.Write(doc.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, []string{"First paragraph.", "Second paragraph."})

	got, err := New().Extract(context.Background(), data, KindDOCX)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.\n", got)
}

func TestExtract_DOCX_Malformed(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("not a zip at all"), KindDOCX)
	require.Error(t, err)
}

func TestExtract_DOCX_MissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = New().Extract(context.Background(), buf.Bytes(), KindDOCX)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document.xml")
}

func TestExtract_PDF_Malformed(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("%PDF-garbage"), KindPDF)
	require.Error(t, err)
}

func TestExtract_UnknownKind(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("x"), Kind("rtf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
