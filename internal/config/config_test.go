package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.SettleDuration() != 10*time.Second {
		t.Errorf("settle = %v, want 10s", cfg.SettleDuration())
	}
	if cfg.DiskpartTimeout() != 30*time.Minute {
		t.Errorf("diskpart timeout = %v, want 30m", cfg.DiskpartTimeout())
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
shutdown:
  poll_attempts: 3
locator:
  extra_paths:
    - D:\WSL\*\ext4.vhdx
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Shutdown.PollAttempts != 3 {
		t.Errorf("poll_attempts = %d, want 3", cfg.Shutdown.PollAttempts)
	}
	if cfg.Shutdown.SettleSeconds != 10 {
		t.Errorf("settle_seconds should keep its default, got %d", cfg.Shutdown.SettleSeconds)
	}
	if len(cfg.Locator.ExtraPaths) != 1 || !cfg.Locator.Scan {
		t.Errorf("unexpected locator config %#v", cfg.Locator)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "strategies:\n  order: [optimize-vhd, diskpart]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "strategies") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("shutdown:\n  poll_attempts: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "poll_attempts") {
		t.Fatalf("expected poll_attempts validation error, got %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.LogFile = "wslmole.log"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("WSLMOLE_TEST_DIR", "/data")

	tests := []struct {
		in, want string
	}{
		{`%WSLMOLE_TEST_DIR%/wsl`, "/data/wsl"},
		{`$WSLMOLE_TEST_DIR/wsl`, "/data/wsl"},
		{`%WSLMOLE_UNSET_VAR%/wsl`, "%WSLMOLE_UNSET_VAR%/wsl"},
	}
	for _, tt := range tests {
		if got := Expand(tt.in); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetDiskLocations(t *testing.T) {
	t.Setenv("LOCALAPPDATA", "/local")
	t.Setenv("USERPROFILE", "/home/u")

	locs := GetDiskLocations([]string{"  ", "%LOCALAPPDATA%/extra/*.vhdx"})

	owners := map[string]string{}
	for _, l := range locs {
		owners[l.Pattern] = l.Owner
	}
	if got := owners[filepath.Join("/local", "Docker", "wsl", "data", DiskFileName)]; got != "docker-desktop-data" {
		t.Errorf("docker data owner = %q", got)
	}
	if got := owners[filepath.Join("/local", "Docker", "wsl", "main", DiskFileName)]; got != "docker-desktop" {
		t.Errorf("docker main owner = %q", got)
	}
	if _, ok := owners["/local/extra/*.vhdx"]; !ok {
		t.Errorf("extra path not expanded: %#v", locs)
	}
	if _, ok := owners[filepath.Join("/home/u", "AppData", "Local", "wsl", "*", DiskFileName)]; !ok {
		t.Errorf("wsl-managed location missing: %#v", locs)
	}
}
