package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestIngestError(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := IngestError(CodeCorruptDocument, "extracto.xlsx", cause)

	if err.Category != CategoryIngest {
		t.Errorf("Expected category %s, got %s", CategoryIngest, err.Category)
	}

	if err.Code != CodeCorruptDocument {
		t.Errorf("Expected code %s, got %s", CodeCorruptDocument, err.Code)
	}

	if !strings.Contains(err.Error(), "extracto.xlsx") {
		t.Errorf("Expected error message to mention the document, got: %s", err.Error())
	}

	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}
}

func TestParseErrorContext(t *testing.T) {
	err := ParseError(CodeInvalidCSV, "ventas.csv", 12, fmt.Errorf("bad record"))

	if err.Context["document"] != "ventas.csv" {
		t.Errorf("Expected document context, got %v", err.Context["document"])
	}

	if err.Context["line"] != 12 {
		t.Errorf("Expected line context 12, got %v", err.Context["line"])
	}
}

func TestWithSuggestion(t *testing.T) {
	err := ConfigError("amount-tolerance", -1.0, nil).
		WithSuggestion("use a non-negative tolerance")

	if !strings.Contains(err.Error(), "suggestion: use a non-negative tolerance") {
		t.Errorf("Expected suggestion in message, got: %s", err.Error())
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected int
	}{
		{"ingest", IngestError(CodeEmptyDocument, "f", nil), 2},
		{"parse", ParseError(CodeInvalidSheet, "f", 0, nil), 2},
		{"config", ConfigError("field", "value", nil), 3},
		{"render", RenderError("xlsx", nil), 4},
		{"collaborator", CollaboratorError(CodeRankerTimeout, nil), 5},
		{"internal", InternalError("matching", nil), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.ExitCode(); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestGetExitCodeForeignError(t *testing.T) {
	if got := GetExitCode(fmt.Errorf("plain error")); got != 1 {
		t.Errorf("Expected exit code 1 for foreign error, got %d", got)
	}
}

func TestFormatUserMessage(t *testing.T) {
	err := IngestError(CodeUnsupportedFormat, "extracto.docx", nil).
		WithSuggestion("upload a CSV, XLSX or PDF file")

	msg := FormatUserMessage(err)
	if !strings.Contains(msg, "[ingest/unsupported_format]") {
		t.Errorf("Expected category/code prefix, got: %s", msg)
	}
	if !strings.Contains(msg, "upload a CSV") {
		t.Errorf("Expected suggestion line, got: %s", msg)
	}
}
