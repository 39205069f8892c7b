package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"studyhelper_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText(t *testing.T) {
	e := NewFileTextExtractor()
	out, err := e.Extract(context.Background(), "notes.TXT", strings.NewReader("  Cells divide by mitosis.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Cells divide by mitosis.", out)
}

func TestExtractDocx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Chapter </w:t></w:r><w:r><w:t>One</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Energy is conserved.</w:t></w:r></w:p>`)

	out, err := NewFileTextExtractor().Extract(context.Background(), "lecture.docx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Chapter One\nEnergy is conserved.", out)
}

func TestExtractRejectsUnsupported(t *testing.T) {
	e := NewFileTextExtractor()

	_, err := e.Extract(context.Background(), "slides.pptx", strings.NewReader("x"))
	assert.ErrorIs(t, err, util.ErrUnsupportedFileType)

}

func TestExtractBrokenPDF(t *testing.T) {
	_, err := NewFileTextExtractor().Extract(context.Background(), "paper.pdf", strings.NewReader("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

func TestExtractBrokenDocx(t *testing.T) {
	_, err := NewFileTextExtractor().Extract(context.Background(), "broken.docx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestExtractTooLarge(t *testing.T) {
	e := &FileTextExtractor{MaxSize: 4}
	_, err := e.Extract(context.Background(), "a.txt", strings.NewReader("12345"))
	assert.Error(t, err)
}
