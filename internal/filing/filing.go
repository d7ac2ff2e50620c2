package filing

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"docket/internal/structuring"
)

// Target describes where a document belongs in the archive.
type Target struct {
	Category string
	Dir      string
	Filename string
	Path     string
}

// maxNameLen bounds the sanitized portion of a filed name.
const maxNameLen = 80

// Plan derives the archive location for a document. Layout is
// <archive>/<Category>/<YYYY>/<YYYY-MM>/<date>-<ABBR>-<name><ext>, using the
// document date when the structurer found one and the received date
// otherwise. Plan never touches the filesystem.
func Plan(archiveRoot string, record structuring.Record, originalName string, receivedAt time.Time) Target {
	category := structuring.NormalizeCategory(record.Category)

	date := record.DocumentDate
	if date == "" {
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}
		date = receivedAt.UTC().Format("2006-01-02")
	}

	year := date[:4]
	yearMonth := date[:7]

	ext := strings.ToLower(filepath.Ext(originalName))
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	name := Sanitize(base)
	if name == "" {
		name = "document"
	}

	filename := date + "-" + structuring.Abbreviation(category) + "-" + name + ext
	dir := filepath.Join(archiveRoot, Sanitize(category), year, yearMonth)

	return Target{
		Category: category,
		Dir:      dir,
		Filename: filename,
		Path:     filepath.Join(dir, filename),
	}
}

// HoldingPath derives where a failed document goes. The holding folder is
// flat; name collisions are resolved by the caller.
func HoldingPath(holdingRoot, originalName string) string {
	return filepath.Join(holdingRoot, filepath.Base(originalName))
}

var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize folds a string into a filesystem-safe name: diacritics stripped,
// anything outside [A-Za-z0-9._-] collapsed to a single underscore.
func Sanitize(text string) string {
	folded, _, err := transform.String(diacriticsRemover, text)
	if err != nil {
		folded = text
	}

	var sb strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && sb.Len() > 0 {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	result := strings.Trim(sb.String(), "._-")
	runesOut := []rune(result)
	if len(runesOut) > maxNameLen {
		result = strings.Trim(string(runesOut[:maxNameLen]), "._-")
	}
	return result
}
