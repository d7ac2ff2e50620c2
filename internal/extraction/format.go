package extraction

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies the document container the strategies dispatch on.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".txt":      FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".csv":      FormatText,
	".log":      FormatText,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".tif":      FormatImage,
	".tiff":     FormatImage,
	".bmp":      FormatImage,
}

// DetectFormat classifies a file by extension, falling back to magic-byte
// sniffing for extensionless or mislabeled drops.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extensionFormats[ext]; ok {
		return format
	}
	return sniffFormat(path)
}

func sniffFormat(path string) Format {
	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer file.Close()

	header := make([]byte, 8)
	n, err := file.Read(header)
	if err != nil || n == 0 {
		return FormatUnknown
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(header, []byte("PK\x03\x04")):
		// ZIP container; docx is the only one the pipeline understands.
		return FormatDOCX
	case bytes.HasPrefix(header, []byte{0x89, 'P', 'N', 'G'}):
		return FormatImage
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}):
		return FormatImage
	case looksTextual(header):
		return FormatText
	default:
		return FormatUnknown
	}
}

func looksTextual(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
		if b < 0x09 {
			return false
		}
	}
	return true
}
