package util

const TimeFormat = "2006-01-02 15:04:05"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
	StorageS3    = "s3"
)

// 文件上传相关常量
const (
	MimeText        = "text/plain"
	MimeDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeZip         = "application/zip"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"

	MaxUploadSize = 10 << 20
)

var (
	AllowedDocumentExtensions = []string{".txt", ".docx", ".pdf"}
)
