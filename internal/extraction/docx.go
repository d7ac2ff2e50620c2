package extraction

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// extractDOCX parses a .docx file by streaming word/document.xml out of the
// ZIP archive. Paragraphs become newline-separated text.
func extractDOCX(path string) (string, Quality, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", Quality{}, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", Quality{}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", Quality{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var currentText strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				currentText.Reset()
			}
		case xml.CharData:
			if inParagraph {
				currentText.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(currentText.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	text := strings.Join(paragraphs, "\n")
	quality := MeasureQuality(text, 0, false)
	if text == "" {
		return "", quality, fmt.Errorf("no text content found in document")
	}
	return text, quality, nil
}
