package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init("loud", "console", "stderr"); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestInit_FileOutput(t *testing.T) {
	defer func() { Log = zap.NewNop() }()

	path := filepath.Join(t.TempDir(), "certmap.log")
	if err := Init("debug", "json", path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Info("batch mapped", zap.Int("questions", 3))
	Named("store").Debug("schema ready")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"message":"batch mapped"`) || !strings.Contains(out, `"questions":3`) {
		t.Errorf("Expected structured entry in log, got %s", out)
	}
	if !strings.Contains(out, `"logger":"store"`) {
		t.Errorf("Expected named logger entry, got %s", out)
	}
}
