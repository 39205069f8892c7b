package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"studyhelper_backend/internal/util"

	"github.com/ledongthuc/pdf"
)

// FileTextExtractor reads plain text, Word and PDF documents.
type FileTextExtractor struct {
	MaxSize int64
}

func NewFileTextExtractor() *FileTextExtractor {
	return &FileTextExtractor{MaxSize: util.MaxUploadSize}
}

func (e *FileTextExtractor) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext, ok := util.DocumentExtension(filename)
	if !ok {
		return "", fmt.Errorf("%w: %s", util.ErrUnsupportedFileType, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, e.MaxSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > e.MaxSize {
		return "", fmt.Errorf("file exceeds %d bytes", e.MaxSize)
	}

	switch ext {
	case ".txt":
		if !utf8.Valid(data) {
			data = bytes.ToValidUTF8(data, []byte("�"))
		}
		return strings.TrimSpace(string(data)), nil
	case ".docx":
		return extractDocx(data)
	case ".pdf":
		return extractPDF(data)
	}
	return "", fmt.Errorf("%w: %s", util.ErrUnsupportedFileType, ext)
}

// extractPDF returns the plain text layer; scanned PDFs come back empty.
func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.Join(strings.Fields(string(b)), " "), nil
}

// extractDocx collects the w:t runs of word/document.xml, one line per
// paragraph.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("read docx: word/document.xml missing")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		sb     strings.Builder
		para   strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					sb.WriteString(line)
					sb.WriteByte('\n')
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
