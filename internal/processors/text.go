package processors

import (
	"context"
	"strconv"
)

// TextProcessor handles plaintext and Markdown: a single unit covering the
// whole file.
type TextProcessor struct{}

// CanProcess reports whether mimeType is plaintext or Markdown.
func (p *TextProcessor) CanProcess(mimeType string) bool {
	switch mimeType {
	case "text/plain", "text/markdown":
		return true
	default:
		return false
	}
}

// Process returns the file content as a single unit.
func (p *TextProcessor) Process(_ context.Context, data []byte) (Result, error) {
	text := string(data)
	return Result{
		RawText: text,
		Units:   []Unit{{Key: "0", Text: text}},
		TechnicalMetadata: map[string]string{
			"type":  "text",
			"bytes": strconv.Itoa(len(data)),
		},
	}, nil
}

// SnippetProcessor treats a user-authored title+body as a single unit. It
// is invoked directly by the Ingestion Coordinator (snippets have no MIME
// byte payload to dispatch through Registry.Process), so it is not
// registered in Registry.
type SnippetProcessor struct{}

// Process formats title and body into one searchable unit.
func (p *SnippetProcessor) Process(title, body string) Result {
	text := title
	if body != "" {
		text = title + "\n\n" + body
	}
	return Result{
		RawText: text,
		Units:   []Unit{{Key: "0", Text: text}},
		TechnicalMetadata: map[string]string{
			"type": "snippet",
		},
	}
}
