package cmd

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"tracking-reconciliation-service/pkg/errors"
)

func TestCLIErrorHandler_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"nil", nil, 0, ""},
		{"file", errors.FileError(errors.CodeFileNotFound, "a.csv", nil), 2, "Suggestion: check if the file path is correct"},
		{"parse", errors.ParseError(errors.CodeEncodingError, "a.csv", 0, nil), 3, "Parse error help"},
		{"config", errors.ConfigurationError(errors.CodeInvalidConfig, "comparison_mode", "x", nil), 4, "RECONCILER_"},
		{"report", errors.ReportError(errors.CodeReportWriteFailed, "r.xlsx", nil), 6, "Report error help"},
		{"wrapped reconciler error", fmt.Errorf("run: %w", errors.InternalError("assemble", nil)), 5, "unexpected error during assemble"},
		{"plain not exist", fmt.Errorf("open: %w", fs.ErrNotExist), 2, "file not found"},
		{"plain", fmt.Errorf("boom"), 1, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := NewCLIErrorHandler(&buf, false).HandleError(tt.err)
			if code != tt.wantCode {
				t.Errorf("HandleError() = %d, want %d", code, tt.wantCode)
			}
			if tt.contains != "" && !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("output missing %q:\n%s", tt.contains, buf.String())
			}
		})
	}
}

func TestCLIErrorHandler_Summary(t *testing.T) {
	summary := errors.NewErrorSummary([]*errors.ReconcilerError{
		errors.FileError(errors.CodeFileNotFound, "platform.csv", nil),
		errors.ParseError(errors.CodeEmptyFile, "provider.csv", 0, nil),
	})

	var buf bytes.Buffer
	code := NewCLIErrorHandler(&buf, false).HandleError(fmt.Errorf("load: %w", summary))
	if code != 2 {
		t.Errorf("HandleError() = %d, want 2", code)
	}

	out := buf.String()
	for _, want := range []string{
		"2 errors occurred",
		"[1] Error: file not found: platform.csv",
		"[2] Error: file provider.csv has no header row",
		"Parse error help",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIErrorHandler_ContextIsSorted(t *testing.T) {
	err := errors.ParseError(errors.CodeInvalidFormat, "b.csv", 7, nil).WithContext("a_first", 1)

	var buf bytes.Buffer
	NewCLIErrorHandler(&buf, false).HandleError(err)

	out := buf.String()
	first := strings.Index(out, "a_first")
	file := strings.Index(out, "file: b.csv")
	line := strings.Index(out, "line: 7")
	if first < 0 || file < 0 || line < 0 || !(first < file && file < line) {
		t.Errorf("context not sorted:\n%s", out)
	}
}

func TestCLIErrorHandler_VerboseShowsCause(t *testing.T) {
	err := errors.FileError(errors.CodeFilePermission, "a.csv", fmt.Errorf("denied by policy"))

	var buf bytes.Buffer
	NewCLIErrorHandler(&buf, true).HandleError(err)
	if !strings.Contains(buf.String(), "Underlying error: denied by policy") {
		t.Errorf("verbose output missing cause:\n%s", buf.String())
	}
}
