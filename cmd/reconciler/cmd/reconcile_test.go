package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	platformCSV = "id,gateway,gateway_tracking_code\n1,sep,111111\n2,sep,222222\n3,mellat,333333\n"
	providerCSV = "description,reference\npaid 111111,111111\nfee,999\n"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/in/platform.csv", []byte(platformCSV), 0644); err != nil {
		t.Fatalf("failed to write platform file: %v", err)
	}
	if err := afero.WriteFile(fs, "/in/provider.csv", []byte(providerCSV), 0644); err != nil {
		t.Fatalf("failed to write provider file: %v", err)
	}
	return &app{v: viper.New(), fs: fs}
}

func execute(t *testing.T, a *app, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append(args, "--log-level", "error")
	code := run(context.Background(), newRootCommand(a), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestReconcileCommand(t *testing.T) {
	a := newTestApp(t)

	code, stdout, stderr := execute(t, a, "reconcile",
		"--platform", "/in/platform.csv",
		"--provider", "/in/provider.csv",
		"--gateway", "SEP",
		"--output", "/report.json")

	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{"gateway SEP", "Matches:", "Platform only:", "Report written to /report.json (json)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	data, err := afero.ReadFile(a.fs, "/report.json")
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	for _, table := range []string{"filtered_platform", "provider", "match", "non_match_platform", "non_match_provider"} {
		if !bytes.Contains(data, []byte(`"`+table+`"`)) {
			t.Errorf("report missing table %s", table)
		}
	}
}

func TestReconcileCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains string
	}{
		{
			name:     "missing provider",
			args:     []string{"reconcile", "--platform", "/in/platform.csv"},
			wantCode: 4,
			contains: "pass both --platform and --provider",
		},
		{
			name:     "missing file",
			args:     []string{"reconcile", "-p", "/in/nope.csv", "-r", "/in/provider.csv"},
			wantCode: 2,
			contains: "file not found",
		},
		{
			name:     "unsupported input",
			args:     []string{"reconcile", "-p", "/in/platform.xls", "-r", "/in/provider.csv"},
			wantCode: 2,
			contains: "unsupported file format",
		},
		{
			name:     "invalid mode",
			args:     []string{"reconcile", "-p", "/in/platform.csv", "-r", "/in/provider.csv", "--mode", "loose"},
			wantCode: 4,
			contains: "comparison_mode",
		},
		{
			name:     "invalid pattern",
			args:     []string{"reconcile", "-p", "/in/platform.csv", "-r", "/in/provider.csv", "--pattern", `(?<=x)\d`},
			wantCode: 4,
			contains: "RE2",
		},
		{
			name:     "unknown output extension",
			args:     []string{"reconcile", "-p", "/in/platform.csv", "-r", "/in/provider.csv", "-o", "out.pdf"},
			wantCode: 4,
			contains: "output.path",
		},
		{
			name:     "unknown flag",
			args:     []string{"reconcile", "--bank-files", "x.csv"},
			wantCode: 1,
			contains: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, newTestApp(t), tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\n%s", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, tt.contains) {
				t.Errorf("stderr missing %q:\n%s", tt.contains, stderr)
			}
		})
	}
}

func TestReconcileCommandNoData(t *testing.T) {
	code, stdout, stderr := execute(t, newTestApp(t), "reconcile",
		"-p", "/in/platform.csv", "-r", "/in/provider.csv", "-g", "zarinpal", "-o", "/r.json")

	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "No data to reconcile: no platform records for gateway zarinpal") {
		t.Errorf("unexpected stdout:\n%s", stdout)
	}
}

func TestReconcileCommandReadsConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "reconciler.yaml")
	content := "platform: /in/platform.csv\nprovider: /in/provider.csv\ngateway: mellat\noutput:\n  path: /cfg.json\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	a := newTestApp(t)
	code, stdout, stderr := execute(t, a, "reconcile", "--config", cfgPath)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "gateway mellat") {
		t.Errorf("config gateway not applied:\n%s", stdout)
	}
	if exists, _ := afero.Exists(a.fs, "/cfg.json"); !exists {
		t.Error("report path from config file not used")
	}

	t.Setenv("RECONCILER_MATCH_POLICY", "sideways")
	code, _, stderr = execute(t, newTestApp(t), "reconcile", "--config", cfgPath)
	if code != 4 || !strings.Contains(stderr, "match_policy") {
		t.Errorf("env override not applied: exit %d\n%s", code, stderr)
	}
}

func TestReconcileCommandBadConfigFile(t *testing.T) {
	code, _, stderr := execute(t, newTestApp(t), "reconcile", "--config", "/does/not/exist.yaml")
	if code != 4 {
		t.Errorf("exit code = %d, want 4\n%s", code, stderr)
	}
}

func TestPatternsCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "default set",
			args:     []string{"patterns"},
			contains: []string{"Pattern set: default v1", "long-number", "Built-in sets: cell-value, default, ezpay"},
		},
		{
			name:     "sample text",
			args:     []string{"patterns", "paid ref 123456789 and 123456789"},
			contains: []string{"Sample: paid ref 123456789", "  123456789\n"},
		},
		{
			name:     "custom expressions",
			args:     []string{"patterns", "--pattern", `REF\d{6}`, "paid REF123456"},
			contains: []string{"Pattern set: custom v1", "pattern_1", "  REF123456\n"},
		},
		{
			name:     "no codes",
			args:     []string{"patterns", "--patterns", "ezpay", "nothing here"},
			contains: []string{"Pattern set: ezpay v1", "No codes found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, newTestApp(t), tt.args...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
			}
			for _, want := range tt.contains {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestReconcileCommandHelp(t *testing.T) {
	code, stdout, _ := execute(t, newTestApp(t), "reconcile", "--help")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"Usage:", "Examples:", "--platform", "--provider", "--gateway", "--threshold", "--policy"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
