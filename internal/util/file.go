package util

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// documentMimeTypes 每种扩展名允许的嗅探结果，docx 本质是 zip
var documentMimeTypes = map[string][]string{
	".txt":  {MimeText},
	".docx": {MimeZip, MimeDocx},
	".pdf":  {MimePDF},
}

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "text/plain", "application/zip"
func ValidateMimeType(head []byte, allowedTypes []string) (string, error) {
	if len(head) > 512 {
		head = head[:512]
	}

	// 检测 MIME 类型
	mimeType := http.DetectContentType(head)

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) {
			return mimeType, nil
		}
	}

	return mimeType, fmt.Errorf("%w: content is %s", ErrUnsupportedFileType, mimeType)
}

// ValidateDocument checks that an upload's content matches its extension.
func ValidateDocument(ext string, data []byte) error {
	allowed, ok := documentMimeTypes[ext]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
	_, err := ValidateMimeType(data, allowed)
	return err
}

// DocumentExtension returns the lower-cased extension if it is an accepted
// upload type.
func DocumentExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedDocumentExtensions {
		if ext == allowed {
			return ext, true
		}
	}
	return ext, false
}
