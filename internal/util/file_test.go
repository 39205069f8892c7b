package util

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	_, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	assert.NoError(t, ValidateDocument(".txt", []byte("Mitochondria make ATP.")))
	assert.NoError(t, ValidateDocument(".docx", zipped.Bytes()))
	assert.NoError(t, ValidateDocument(".pdf", []byte("%PDF-1.7\n")))

	assert.ErrorIs(t, ValidateDocument(".txt", zipped.Bytes()), ErrUnsupportedFileType)
	assert.ErrorIs(t, ValidateDocument(".docx", []byte("plain words")), ErrUnsupportedFileType)
	assert.ErrorIs(t, ValidateDocument(".exe", []byte("MZ")), ErrUnsupportedFileType)
}

func TestDocumentExtension(t *testing.T) {
	ext, ok := DocumentExtension("Notes.DOCX")
	assert.True(t, ok)
	assert.Equal(t, ".docx", ext)

	_, ok = DocumentExtension("photo.png")
	assert.False(t, ok)
}
