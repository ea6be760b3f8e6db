package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmptyLauncherConfig_Defaults(t *testing.T) {
	cfg := EmptyLauncherConfig()

	if got := cfg.GetPretrainedDir(); got != "./pretrained" {
		t.Errorf("GetPretrainedDir() = %q", got)
	}
	if got := cfg.GetExpsDir(); got != "exps/default" {
		t.Errorf("GetExpsDir() = %q", got)
	}
	if got := cfg.GetFallbackExp(); got != "yolox_x" {
		t.Errorf("GetFallbackExp() = %q", got)
	}
	if got := cfg.GetPython(); got != "python3" {
		t.Errorf("GetPython() = %q", got)
	}
	if got := cfg.GetDemoScript(); got != "tools/demo_track_vehicle.py" {
		t.Errorf("GetDemoScript() = %q", got)
	}
	if got := cfg.GetLedgerPath(); got != DefaultLedgerPath {
		t.Errorf("GetLedgerPath() = %q", got)
	}
	if got := cfg.GetDownloadTimeout(); got != 30*time.Minute {
		t.Errorf("GetDownloadTimeout() = %v", got)
	}
}

func TestLoadLauncherConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vehicle-detect.json")

	testJSON := `{
  "pretrained_dir": "/data/weights",
  "python": "/opt/venv/bin/python",
  "ledger_path": "",
  "download_timeout": "5m"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadLauncherConfig(configPath)
	if err != nil {
		t.Fatalf("LoadLauncherConfig failed: %v", err)
	}

	if cfg.GetPretrainedDir() != "/data/weights" {
		t.Errorf("pretrained_dir = %q", cfg.GetPretrainedDir())
	}
	if cfg.GetPython() != "/opt/venv/bin/python" {
		t.Errorf("python = %q", cfg.GetPython())
	}
	if cfg.GetLedgerPath() != "" {
		t.Errorf("explicit empty ledger_path should disable the ledger, got %q", cfg.GetLedgerPath())
	}
	if cfg.GetDownloadTimeout() != 5*time.Minute {
		t.Errorf("download_timeout = %v", cfg.GetDownloadTimeout())
	}
	// omitted fields keep defaults
	if cfg.GetExpsDir() != DefaultExpsDir {
		t.Errorf("exps_dir = %q", cfg.GetExpsDir())
	}
}

func TestLoadLauncherConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "failed to stat"},
		{"bad json", write("bad.json", "{not json"), "failed to parse"},
		{"bad duration", write("dur.json", `{"download_timeout": "soon"}`), "invalid download_timeout"},
		{"negative duration", write("neg.json", `{"download_timeout": "-1s"}`), "non-negative"},
		{"fallback with extension", write("fb.json", `{"fallback_exp": "yolox_x.py"}`), "bare model name"},
		{"empty python", write("py.json", `{"python": " "}`), "python must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLauncherConfig(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadLauncherConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.json")
	if err := os.WriteFile(p, make([]byte, 1024*1024+1), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLauncherConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "vehicle-detect.json")

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should fall back to defaults: %v", err)
	}
	if cfg.GetPretrainedDir() != DefaultPretrainedDir {
		t.Errorf("expected defaults, got %q", cfg.GetPretrainedDir())
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Error("explicit missing config should be an error")
	}
}

func TestOverride(t *testing.T) {
	cfg := EmptyLauncherConfig()

	Override(&cfg.PretrainedDir, "")
	if cfg.PretrainedDir != nil {
		t.Error("empty override should leave the field unset")
	}

	Override(&cfg.PretrainedDir, "/mnt/w")
	if cfg.GetPretrainedDir() != "/mnt/w" {
		t.Errorf("override not applied: %q", cfg.GetPretrainedDir())
	}
}
