package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got := cfg.Patterns.Command.MinSupport; got != 3 {
		t.Fatalf("command min_support: want=3 got=%d", got)
	}
	if got := cfg.Window.BatchLimit; got != 100 {
		t.Fatalf("batch_limit: want=100 got=%d", got)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("location: got=%s", cfg.Location())
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "patterns:\n  command:\n    min_support: 4\n    full_confidence_support: 8\n  temporal:\n    time_zone: Asia/Ho_Chi_Minh\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Patterns.Command.MinSupport != 4 || cfg.Patterns.Command.MaxWords != 3 {
		t.Fatalf("overlay: min_support=%d max_words=%d", cfg.Patterns.Command.MinSupport, cfg.Patterns.Command.MaxWords)
	}
	if cfg.Patterns.Temporal.MinSupport != 3 {
		t.Fatalf("overlay kept temporal default: got=%d", cfg.Patterns.Temporal.MinSupport)
	}
}

func TestLoadFileRejectsBadThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("patterns:\n  temporal:\n    min_support: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("LoadFile: want validation error")
	}
}

func TestThresholdConfidence(t *testing.T) {
	th := Threshold{MinSupport: 3, FullConfidenceSupport: 10}
	if got := th.Confidence(3); got != 0.3 {
		t.Fatalf("confidence(3): want=0.3 got=%v", got)
	}
	if got := th.Confidence(25); got != 1 {
		t.Fatalf("confidence(25): want=1 got=%v", got)
	}
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	ai := cfg.Suggestions.AI
	if !ai.Enabled || ai.Limit != 5 || ai.MaxConfidence != 0.6 {
		t.Fatalf("ai defaults: got=%+v", ai)
	}
	cfg.Suggestions.AI.DefaultConfidence = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatalf("default above max: want validation error")
	}
	cfg.Suggestions.AI.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled ai skips checks: %v", err)
	}
}
