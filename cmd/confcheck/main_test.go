package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

const bootstrapFile = `{
  // shared settings
  httpPort: 8080,
  dbName: "main",
  adminPassword: "hunter2",
}`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "config")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return base
}

func runConfcheck(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, []string{}, &stdout, &stderr, zaptest.NewLogger(t))
	return code, stdout.String(), stderr.String()
}

func TestValidate(t *testing.T) {
	base := writeConfig(t, map[string]string{"hello_world_bootstrap.json5": bootstrapFile})

	code, stdout, stderr := runConfcheck(t, "--base-path", base, "validate", "--", "--env", "test")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "configuration valid: schema=app env=test (from command line)") {
		t.Fatalf("unexpected output: %q", stdout)
	}
	if !strings.Contains(stderr, "version.number") {
		t.Fatalf("expected a missing version warning, got %q", stderr)
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	base := writeConfig(t, nil)

	code, _, stderr := runConfcheck(t, "--base-path", base, "validate", "--", "--httpPort", "8080")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	for _, field := range []string{"env", "dbName"} {
		if !strings.Contains(stderr, "  - "+field+":") {
			t.Fatalf("expected violation for %s in:\n%s", field, stderr)
		}
	}
	if strings.Contains(stderr, "  - httpPort:") {
		t.Fatalf("httpPort is valid:\n%s", stderr)
	}
}

func TestValidateRejectsMalformedCommandLine(t *testing.T) {
	base := writeConfig(t, nil)

	code, _, stderr := runConfcheck(t, "--base-path", base, "validate", "--", "--foo", "--bar", "baz")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.HasPrefix(stderr, "malformed_input error:") {
		t.Fatalf("expected malformed input error, got %q", stderr)
	}
}

func TestPrint(t *testing.T) {
	base := writeConfig(t, map[string]string{"hello_world_bootstrap.json5": bootstrapFile})

	t.Run("json5 redacted by default", func(t *testing.T) {
		code, stdout, stderr := runConfcheck(t, "--base-path", base, "print", "--", "--env", "test")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		if !strings.HasPrefix(stdout, "{\n  env: \"test\",\n") {
			t.Fatalf("unexpected document:\n%s", stdout)
		}
		if strings.Contains(stdout, "hunter2") || !strings.Contains(stdout, "********") {
			t.Fatalf("expected secret to be redacted:\n%s", stdout)
		}
	})

	t.Run("yaml without redaction", func(t *testing.T) {
		code, stdout, stderr := runConfcheck(t, "--base-path", base, "print", "--format", "yaml", "--no-redact", "--", "--env", "test")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		for _, line := range []string{"env: test\n", "httpPort: 8080\n", "adminPassword: hunter2\n"} {
			if !strings.Contains(stdout, line) {
				t.Fatalf("expected %q in:\n%s", line, stdout)
			}
		}
	})

	t.Run("origins", func(t *testing.T) {
		code, stdout, stderr := runConfcheck(t, "--base-path", base, "print", "--origins", "--", "--env", "test")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		for _, pattern := range []string{
			`(?m)^env\s+test\s+command line$`,
			`(?m)^httpPort\s+8080\s+file$`,
			`(?m)^dbPort\s+5432\s+defaults$`,
			`(?m)^hostName\s+127\.0\.0\.1\s+fallback$`,
			`(?m)^adminPassword\s+\*{8}\s+file$`,
		} {
			if !regexp.MustCompile(pattern).MatchString(stdout) {
				t.Fatalf("expected %s in:\n%s", pattern, stdout)
			}
		}
	})
}

func TestPrintUsesEnvironmentVariables(t *testing.T) {
	base := writeConfig(t, map[string]string{"hello_world_bootstrap.json5": bootstrapFile})

	var stdout, stderr bytes.Buffer
	environ := []string{"HELLO_WORLD_ENV=staging", "HELLO_WORLD_DB_NAME=reports"}
	code := run([]string{"--base-path", base, "print", "--origins"}, environ, &stdout, &stderr, zaptest.NewLogger(t))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	for _, pattern := range []string{`(?m)^env\s+staging\s+environment$`, `(?m)^dbName\s+reports\s+environment$`} {
		if !regexp.MustCompile(pattern).MatchString(stdout.String()) {
			t.Fatalf("expected %s in:\n%s", pattern, stdout.String())
		}
	}
}

func TestFields(t *testing.T) {
	code, stdout, _ := runConfcheck(t, "--schema", "base", "fields")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !regexp.MustCompile(`(?m)^httpPort\s+int\s+true\s+-\s+range 1\.\.65535\s+HTTP listen port$`).MatchString(stdout) {
		t.Fatalf("unexpected fields table:\n%s", stdout)
	}
	if strings.Contains(stdout, "dbName") {
		t.Fatalf("base schema must not list application settings:\n%s", stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"frobnicate"},
		{"--schema", "other", "fields"},
		{"--default-env", "moon", "validate"},
	} {
		if code, _, _ := runConfcheck(t, args...); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
}
