package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(out)
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	out := captureStdout(t, func() {
		Init(Config{
			Service: "demo",
			Version: "1.2.3",
			Env:     EnvDev,
			Backend: BackendStd,
		})
		slog.Info("booted", slog.String("k", "v"))
	})

	if !strings.Contains(out, "msg=booted") {
		t.Fatalf("expected text line with msg, got %q", out)
	}
	if !strings.Contains(out, "service=demo") || !strings.Contains(out, "k=v") {
		t.Fatalf("common attrs missing: %q", out)
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	out := captureStdout(t, func() {
		Init(Config{
			Service:          "demo",
			Version:          "1.2.3",
			Env:              EnvProd,
			Backend:          BackendZap,
			Level:            slog.LevelInfo,
			SampleInitial:    100000,
			SampleThereafter: 100000,
		})
		slog.Info("booted", slog.String("k", "v"))
	})

	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("expected JSON line, got %q, err=%v", out, err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "demo" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: service=%v env=%v version=%v", m["service"], m["env"], m["version"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if got := DetectEnv(); got != EnvProd {
		t.Fatalf("want prod, got %s", got)
	}
	t.Setenv("APP_ENV", "")
	if got := DetectEnv(); got != EnvDev {
		t.Fatalf("want dev, got %s", got)
	}
}
