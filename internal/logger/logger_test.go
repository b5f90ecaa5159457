package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("unexpected log dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestNewReleaseWritesServiceField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{
		Service:  "bluepay-api",
		Dir:      tmpDir,
		Filename: "release.log",
	})
	log.Info("withdrawal_submitted")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "withdrawal_submitted") {
		t.Fatalf("expected log content to contain message, got=%s", text)
	}
	if !strings.Contains(text, `"service":"bluepay-api"`) {
		t.Fatalf("expected service field, got=%s", text)
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestWithFieldsAccumulates(t *testing.T) {
	ctx := WithFields(context.Background(), "request_id", "r-1")
	ctx = WithFields(ctx, "user_id", uint(7))

	fields := fieldsFrom(ctx)
	if len(fields) != 4 {
		t.Fatalf("expected 4 field entries, got %d", len(fields))
	}
	if fields[0] != "request_id" || fields[2] != "user_id" {
		t.Fatalf("unexpected fields: %v", fields)
	}

	parent := WithFields(context.Background(), "request_id", "r-2")
	_ = WithFields(parent, "user_id", uint(8))
	if got := fieldsFrom(parent); len(got) != 2 {
		t.Fatalf("child context must not mutate parent fields: %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw   string
		debug bool
		want  zapcore.Level
	}{
		{raw: "warn", want: zapcore.WarnLevel},
		{raw: " ERROR ", want: zapcore.ErrorLevel},
		{raw: "", want: zapcore.InfoLevel},
		{raw: "verbose", want: zapcore.InfoLevel},
		{raw: "error", debug: true, want: zapcore.DebugLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.raw, tc.debug); got != tc.want {
			t.Fatalf("parseLevel(%q, %v) = %v, want %v", tc.raw, tc.debug, got, tc.want)
		}
	}
}

func TestNewReleaseRespectsLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Level: "warn", Dir: tmpDir, Filename: "level.log"})
	log.Info("proof_stored")
	log.Warn("withdrawal_approval_debit_failed")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "proof_stored") {
		t.Fatalf("info entry should be filtered at warn level: %s", text)
	}
	if !strings.Contains(text, "withdrawal_approval_debit_failed") {
		t.Fatalf("warn entry missing: %s", text)
	}
}
