// Package chunker implements the Chunker: splits processor
// units into overlapping windows, attaches parent Resource context, and
// builds each Chunk's searchable_text.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
	"github.com/Bajtlamer/docsearch-core/internal/processors"
)

// Tuning constants: a unit is split into overlapping windows of ~400-800
// tokens with 10-20% overlap once it exceeds a soft limit; CSV rows are
// always one chunk each regardless of size.
const (
	softLimitChars  = 3200 // approx 800 tokens at ~4 chars/token
	windowChars     = 2400 // approx 600 tokens per window
	overlapFraction = 0.15
)

// Chunk builds Chunks for a Resource from its processor units.
// resource.FileType distinguishes CSV (atomic rows, never split) from
// everything else.
func Chunk(resource *docmodel.Resource, units []processors.Unit, imageDescription string) []*docmodel.Chunk {
	var chunks []*docmodel.Chunk
	charOffset := 0

	for _, unit := range units {
		windows := windowUnit(unit.Text, resource.FileType == docmodel.FileTypeCSV)
		for _, w := range windows {
			idx := len(chunks)
			c := &docmodel.Chunk{
				ChunkID:          uuid.NewString(),
				ParentResourceID: resource.ResourceID,
				TenantID:         resource.TenantID,
				ChunkIndex:       idx,
				CharStart:        charOffset,
				CharEnd:          charOffset + len(w),
				Text:             w,
				TextNormalized:   normalize.Text(w),
			}
			charOffset += len(w)

			if resource.FileType == docmodel.FileTypeImage {
				c.OCRText = w
				c.OCRTextNormalized = normalize.Text(w)
				c.ImageDescription = imageDescription
			}

			assignUnitKey(c, resource.FileType, unit.Key)
			c.SearchableText = SearchableText(resource, c)
			chunks = append(chunks, c)
		}
	}

	return chunks
}

func assignUnitKey(c *docmodel.Chunk, fileType docmodel.FileType, key string) {
	switch fileType {
	case docmodel.FileTypePDF:
		if n, ok := parseIntSafe(key); ok {
			c.PageNumber = &n
		}
	case docmodel.FileTypeCSV:
		if n, ok := parseIntSafe(key); ok {
			c.RowIndex = &n
		}
	}
}

func parseIntSafe(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// windowUnit splits text into overlapping windows once it exceeds the soft
// limit. CSV rows are atomic: csvAtomic forces a single window regardless
// of length.
func windowUnit(text string, csvAtomic bool) []string {
	if csvAtomic || len(text) <= softLimitChars {
		return []string{text}
	}

	overlap := int(float64(windowChars) * overlapFraction)
	stride := windowChars - overlap
	if stride <= 0 {
		stride = windowChars
	}

	var windows []string
	for start := 0; start < len(text); start += stride {
		end := start + windowChars
		if end > len(text) {
			end = len(text)
		}
		windows = append(windows, text[start:end])
		if end == len(text) {
			break
		}
	}
	return windows
}

// SearchableText composes a chunk's searchable_text: resource file name ⊕
// summary ⊕ tags ⊕ keywords ⊕ chunk text ⊕ OCR text, all normalized.
func SearchableText(resource *docmodel.Resource, chunk *docmodel.Chunk) string {
	parts := []string{
		resource.FileName,
		resource.Summary,
		strings.Join(resource.Tags, " "),
		strings.Join(resource.Keywords, " "),
		chunk.Text,
	}
	if chunk.OCRText != "" {
		parts = append(parts, chunk.OCRText)
	}
	return normalize.Text(normalize.Join(parts...))
}
