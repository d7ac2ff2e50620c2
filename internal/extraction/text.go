package extraction

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// maxTextBytes caps plain-text reads; drops larger than this are almost
// certainly not documents.
const maxTextBytes = 16 << 20

// extractPlainText reads a textual file directly.
func extractPlainText(path string) (string, Quality, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", Quality{}, err
	}
	if info.Size() > maxTextBytes {
		return "", Quality{}, fmt.Errorf("file too large for plain text extraction (%d bytes)", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", Quality{}, err
	}
	if !utf8.Valid(data) {
		return "", Quality{}, fmt.Errorf("file is not valid UTF-8 text")
	}

	text := strings.TrimSpace(string(data))
	quality := MeasureQuality(text, 0, false)
	if text == "" {
		return "", quality, fmt.Errorf("file is empty")
	}
	return text, quality, nil
}
