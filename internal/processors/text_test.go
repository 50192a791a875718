package processors

import (
	"context"
	"testing"
)

func TestTextProcessorCanProcess(t *testing.T) {
	p := &TextProcessor{}
	if !p.CanProcess("text/plain") {
		t.Error("expected text/plain to be supported")
	}
	if !p.CanProcess("text/markdown") {
		t.Error("expected text/markdown to be supported")
	}
	if p.CanProcess("application/pdf") {
		t.Error("expected application/pdf to be unsupported")
	}
}

func TestTextProcessorProcessSingleUnit(t *testing.T) {
	p := &TextProcessor{}
	result, err := p.Process(context.Background(), []byte("hello world"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.RawText != "hello world" {
		t.Errorf("RawText = %q", result.RawText)
	}
	if len(result.Units) != 1 || result.Units[0].Text != "hello world" {
		t.Errorf("Units = %+v", result.Units)
	}
}

func TestSnippetProcessorJoinsTitleAndBody(t *testing.T) {
	p := &SnippetProcessor{}
	result := p.Process("Payments outage", "Root cause was a stuck lock.")
	want := "Payments outage\n\nRoot cause was a stuck lock."
	if result.RawText != want {
		t.Errorf("RawText = %q, want %q", result.RawText, want)
	}
	if len(result.Units) != 1 {
		t.Fatalf("Units = %+v", result.Units)
	}
}

func TestSnippetProcessorTitleOnly(t *testing.T) {
	p := &SnippetProcessor{}
	result := p.Process("Just a title", "")
	if result.RawText != "Just a title" {
		t.Errorf("RawText = %q", result.RawText)
	}
}
