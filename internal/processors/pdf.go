package processors

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFProcessor extracts one Unit per page, following the page-loop shape of
// a standard ledongthuc/pdf based parser: open a reader over the byte
// buffer, walk NumPage() pages, call GetPlainText per page.
type PDFProcessor struct{}

// CanProcess reports whether mimeType is a PDF.
func (p *PDFProcessor) CanProcess(mimeType string) bool {
	return mimeType == "application/pdf"
}

// Process extracts page text. A page whose extracted text is empty (an
// image-only scan) still yields a Unit with empty text; OCR fallback for
// image-only pages is not implemented here — a component building on this
// one can route zero-text pages to ImageProcessor.OCR directly.
func (p *PDFProcessor) Process(ctx context.Context, data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	totalPages := reader.NumPage()
	units := make([]Unit, 0, totalPages)
	var allText strings.Builder

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			units = append(units, Unit{Key: strconv.Itoa(pageNum), Text: ""})
			continue
		}

		units = append(units, Unit{Key: strconv.Itoa(pageNum), Text: text})
		allText.WriteString(text)
		allText.WriteString("\n\n")
	}

	return Result{
		RawText: allText.String(),
		Units:   units,
		TechnicalMetadata: map[string]string{
			"pages": strconv.Itoa(totalPages),
			"type":  "pdf",
		},
	}, nil
}
