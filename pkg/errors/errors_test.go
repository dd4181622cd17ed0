package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeEncodingError,
			message:    "cannot decode",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidPattern,
			message:    "bad pattern",
			cause:      errors.New("missing )"),
			expectCode: 4,
		},
		{
			name:       "report error",
			category:   CategoryReport,
			code:       CodeReportWriteFailed,
			message:    "disk full",
			cause:      errors.New("ENOSPC"),
			expectCode: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected a stack trace")
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryFile, CodeFileNotFound, "x") != nil {
		t.Error("wrapping nil should return nil")
	}
	if WrapIfNeeded(nil, CategoryFile, CodeFileNotFound, "x") != nil {
		t.Error("WrapIfNeeded(nil) should return nil")
	}
}

func TestFileErrorUnsupportedFormat(t *testing.T) {
	err := FileError(CodeUnsupportedFormat, "data.txt", nil)

	if err.Category != CategoryFile {
		t.Errorf("expected file category, got %s", err.Category)
	}
	if err.Context["file_path"] != "data.txt" {
		t.Errorf("expected file_path context, got %v", err.Context)
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion")
	}
}

func TestParseErrorLineContext(t *testing.T) {
	withLine := ParseError(CodeInvalidFormat, "a.csv", 7, errors.New("bare quote"))
	if withLine.Context["line"] != 7 {
		t.Errorf("expected line 7 in context, got %v", withLine.Context["line"])
	}

	withoutLine := ParseError(CodeEncodingError, "a.csv", 0, nil)
	if _, ok := withoutLine.Context["line"]; ok {
		t.Error("line context should be omitted when unknown")
	}
}

func TestAsReconcilerErrorThroughWrapping(t *testing.T) {
	base := ConfigurationError(CodeInvalidPattern, "patterns.expressions", "([", nil)
	wrapped := fmt.Errorf("loading settings: %w", base)

	got, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("expected to find ReconcilerError in chain")
	}
	if got.Code != CodeInvalidPattern {
		t.Errorf("expected code %s, got %s", CodeInvalidPattern, got.Code)
	}
	if !HasCode(wrapped, CodeInvalidPattern) {
		t.Error("HasCode should see through wrapping")
	}
	if HasCode(errors.New("plain"), CodeInvalidPattern) {
		t.Error("HasCode should be false for plain errors")
	}
}

func TestWrapIfNeededKeepsExisting(t *testing.T) {
	original := ReportError(CodeReportWriteFailed, "out.xlsx", errors.New("boom"))
	got := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "other")
	if got != original {
		t.Error("expected existing ReconcilerError to be returned unchanged")
	}
}

func TestErrorSummary(t *testing.T) {
	empty := NewErrorSummary(nil)
	if empty.Error() != "no errors" {
		t.Errorf("unexpected empty summary message: %s", empty.Error())
	}

	errs := []*ReconcilerError{
		New(CategoryReconciliation, CodeUnresolvableRow, "row 3"),
		New(CategoryReconciliation, CodeUnresolvableRow, "row 9"),
		New(CategoryReport, CodeReportWriteFailed, "disk"),
	}
	summary := NewErrorSummary(errs)

	if summary.Total != 3 {
		t.Errorf("expected total 3, got %d", summary.Total)
	}
	if summary.ByCode[CodeUnresolvableRow] != 2 {
		t.Errorf("expected 2 unresolvable rows, got %d", summary.ByCode[CodeUnresolvableRow])
	}
	if !summary.HasCode(CodeReportWriteFailed) {
		t.Error("expected summary to contain report_write_failed")
	}
	if summary.HasCode(CodeInvalidConfig) {
		t.Error("summary should not contain invalid_config")
	}
}
