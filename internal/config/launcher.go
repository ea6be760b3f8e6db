package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigPath is where the launcher looks for its optional config file.
const DefaultConfigPath = "vehicle-detect.json"

// Defaults for every launcher setting. A config file only needs to name the
// values it overrides.
const (
	DefaultPretrainedDir   = "./pretrained"
	DefaultExpsDir         = "exps/default"
	DefaultFallbackExp     = "yolox_x"
	DefaultPython          = "python3"
	DefaultDemoScript      = "tools/demo_track_vehicle.py"
	DefaultLedgerPath      = ".vehicle-detect/history.db"
	DefaultDownloadTimeout = 30 * time.Minute
)

// LauncherConfig is the on-disk launcher configuration. Nil fields fall back
// to the package defaults through the Get* accessors.
type LauncherConfig struct {
	PretrainedDir *string `json:"pretrained_dir,omitempty"`
	ExpsDir       *string `json:"exps_dir,omitempty"`
	FallbackExp   *string `json:"fallback_exp,omitempty"`

	// External pipeline
	Python     *string `json:"python,omitempty"`
	DemoScript *string `json:"demo_script,omitempty"`

	// Empty string disables the ledger.
	LedgerPath *string `json:"ledger_path,omitempty"`

	DownloadTimeout *string `json:"download_timeout,omitempty"` // duration string like "30m"
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }

// EmptyLauncherConfig returns a LauncherConfig with all fields set to nil.
func EmptyLauncherConfig() *LauncherConfig {
	return &LauncherConfig{}
}

// LoadLauncherConfig loads a LauncherConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadLauncherConfig(path string) (*LauncherConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyLauncherConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path if it exists. A missing file at the default
// location is not an error; a missing file the user named explicitly is.
func LoadOrDefault(path string, explicit bool) (*LauncherConfig, error) {
	cfg, err := LoadLauncherConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return EmptyLauncherConfig(), nil
	}
	return nil, err
}

// Validate checks that the configuration values are valid.
func (c *LauncherConfig) Validate() error {
	if c.DownloadTimeout != nil && *c.DownloadTimeout != "" {
		d, err := time.ParseDuration(*c.DownloadTimeout)
		if err != nil {
			return fmt.Errorf("invalid download_timeout '%s': %w", *c.DownloadTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("download_timeout must be non-negative, got %s", d)
		}
	}

	if c.FallbackExp != nil {
		v := *c.FallbackExp
		if v == "" || strings.ContainsAny(v, `/\`) || strings.HasSuffix(v, ".py") {
			return fmt.Errorf("fallback_exp must be a bare model name like %q, got %q", DefaultFallbackExp, v)
		}
	}

	for key, v := range map[string]*string{
		"pretrained_dir": c.PretrainedDir,
		"exps_dir":       c.ExpsDir,
		"python":         c.Python,
		"demo_script":    c.DemoScript,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	return nil
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// GetPretrainedDir returns the artifact directory scanned for weights.
func (c *LauncherConfig) GetPretrainedDir() string {
	return stringOr(c.PretrainedDir, DefaultPretrainedDir)
}

// GetExpsDir returns the directory holding experiment files.
func (c *LauncherConfig) GetExpsDir() string {
	return stringOr(c.ExpsDir, DefaultExpsDir)
}

// GetFallbackExp returns the base model whose experiment file is used when
// no dedicated one exists.
func (c *LauncherConfig) GetFallbackExp() string {
	return stringOr(c.FallbackExp, DefaultFallbackExp)
}

// GetPython returns the interpreter used to run the external pipeline.
func (c *LauncherConfig) GetPython() string {
	return stringOr(c.Python, DefaultPython)
}

// GetDemoScript returns the external pipeline entry script.
func (c *LauncherConfig) GetDemoScript() string {
	return stringOr(c.DemoScript, DefaultDemoScript)
}

// GetLedgerPath returns the sqlite ledger path; empty means disabled.
func (c *LauncherConfig) GetLedgerPath() string {
	return stringOr(c.LedgerPath, DefaultLedgerPath)
}

// GetDownloadTimeout parses and returns DownloadTimeout. Zero means no limit.
func (c *LauncherConfig) GetDownloadTimeout() time.Duration {
	if c.DownloadTimeout == nil || *c.DownloadTimeout == "" {
		return DefaultDownloadTimeout
	}
	d, err := time.ParseDuration(*c.DownloadTimeout)
	if err != nil {
		return DefaultDownloadTimeout
	}
	return d
}

// Override sets field to value when value is non-empty. The CLI uses it to
// layer flags over the file.
func Override(field **string, value string) {
	if value != "" {
		*field = ptrString(value)
	}
}
