package constants

import (
	"path/filepath"
	"strings"
)

// FileFormat classifies a source file for the extraction engine.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	DOCX  FileFormat = "DOCX"
	IMAGE FileFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted as project sources.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for an extension, or "" if unsupported.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}

// IsAllowedPath reports whether the file's extension is accepted.
func IsAllowedPath(path string) bool {
	_, ok := AllowedExtensions[NormalizeExt(filepath.Ext(path))]
	return ok
}
