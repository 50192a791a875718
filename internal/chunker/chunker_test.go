package chunker

import (
	"strings"
	"testing"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
	"github.com/Bajtlamer/docsearch-core/internal/processors"
)

func baseResource() *docmodel.Resource {
	return &docmodel.Resource{
		ResourceID: "r1",
		TenantID:   "tenant-a",
		FileName:   "google cloud invoice.pdf",
		FileType:   docmodel.FileTypePDF,
		Summary:    "Monthly cloud bill",
		Tags:       []string{"cloud", "recurring"},
		Keywords:   []string{"invoice", "billing"},
	}
}

func TestChunkShortUnitProducesOneChunk(t *testing.T) {
	resource := baseResource()
	units := []processors.Unit{{Key: "1", Text: "short page of text"}}

	chunks := Chunk(resource, units, "")

	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.ParentResourceID != resource.ResourceID || c.TenantID != resource.TenantID {
		t.Errorf("chunk parentage = %+v", c)
	}
	if c.PageNumber == nil || *c.PageNumber != 1 {
		t.Errorf("PageNumber = %v, want 1", c.PageNumber)
	}
}

func TestChunkLongUnitSplitsIntoOverlappingWindows(t *testing.T) {
	resource := baseResource()
	longText := strings.Repeat("a", softLimitChars+500)
	units := []processors.Unit{{Key: "1", Text: longText}}

	chunks := Chunk(resource, units, "")

	if len(chunks) < 2 {
		t.Fatalf("Chunk() = %d chunks, want > 1 for long unit", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has ChunkIndex %d", i, c.ChunkIndex)
		}
	}
}

func TestChunkCSVRowsAreAlwaysAtomic(t *testing.T) {
	resource := baseResource()
	resource.FileType = docmodel.FileTypeCSV
	longRow := strings.Repeat("b", softLimitChars+500)
	units := []processors.Unit{{Key: "0", Text: longRow}}

	chunks := Chunk(resource, units, "")

	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want exactly 1 for an atomic CSV row", len(chunks))
	}
	if chunks[0].RowIndex == nil || *chunks[0].RowIndex != 0 {
		t.Errorf("RowIndex = %v, want 0", chunks[0].RowIndex)
	}
}

func TestChunkImageUnitPopulatesOCRFields(t *testing.T) {
	resource := baseResource()
	resource.FileType = docmodel.FileTypeImage
	units := []processors.Unit{{Key: "0", Text: "RECEIPT TOTAL $42"}}

	chunks := Chunk(resource, units, "a paper receipt")

	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.OCRText != "RECEIPT TOTAL $42" {
		t.Errorf("OCRText = %q", c.OCRText)
	}
	if c.ImageDescription != "a paper receipt" {
		t.Errorf("ImageDescription = %q", c.ImageDescription)
	}
}

func TestSearchableTextComposesResourceAndChunkFields(t *testing.T) {
	resource := baseResource()
	chunk := &docmodel.Chunk{Text: "Invoice #123"}

	got := SearchableText(resource, chunk)
	want := normalize.Text(normalize.Join(
		resource.FileName, resource.Summary,
		strings.Join(resource.Tags, " "), strings.Join(resource.Keywords, " "),
		chunk.Text,
	))
	if got != want {
		t.Errorf("SearchableText() = %q, want %q", got, want)
	}
	if !strings.Contains(got, "invoice") {
		t.Errorf("SearchableText() = %q, want it to contain keyword %q", got, "invoice")
	}
}
