package processors

import (
	"context"
	"testing"
)

func TestCSVProcessorCanProcess(t *testing.T) {
	p := &CSVProcessor{}
	if !p.CanProcess("text/csv") {
		t.Error("expected text/csv to be supported")
	}
	if p.CanProcess("text/plain") {
		t.Error("expected text/plain to be unsupported")
	}
}

func TestCSVProcessorOneUnitPerRow(t *testing.T) {
	p := &CSVProcessor{}
	data := []byte("vendor,amount\nGoogle,100\nAWS,200\n")
	result, err := p.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Units) != 2 {
		t.Fatalf("Units = %+v, want 2 rows", result.Units)
	}
	if result.Units[0].Text != "vendor: Google | amount: 100" {
		t.Errorf("Units[0].Text = %q", result.Units[0].Text)
	}
	if result.Units[0].Key != "0" || result.Units[1].Key != "1" {
		t.Errorf("row keys = %q, %q", result.Units[0].Key, result.Units[1].Key)
	}
	if result.TechnicalMetadata["rows"] != "2" {
		t.Errorf("TechnicalMetadata[rows] = %q", result.TechnicalMetadata["rows"])
	}
}

func TestCSVProcessorEmptyFile(t *testing.T) {
	p := &CSVProcessor{}
	result, err := p.Process(context.Background(), []byte(""))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Units) != 0 {
		t.Errorf("Units = %+v, want empty", result.Units)
	}
	if result.TechnicalMetadata["rows"] != "0" {
		t.Errorf("TechnicalMetadata[rows] = %q", result.TechnicalMetadata["rows"])
	}
}

func TestCSVProcessorMalformedReturnsProcessorError(t *testing.T) {
	p := &CSVProcessor{}
	data := []byte("a,b\n\"unterminated")
	if _, err := p.Process(context.Background(), data); err == nil {
		t.Error("expected error for malformed CSV")
	}
}
