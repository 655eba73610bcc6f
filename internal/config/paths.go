package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DiskFileName is the file name WSL gives every distribution disk.
const DiskFileName = "ext4.vhdx"

// DiskLocation is a conventional place where a distribution disk lives.
type DiskLocation struct {
	// Pattern is a filepath.Glob pattern (environment already expanded).
	Pattern string

	// Owner attributes matches to a fixed distribution. Empty means the
	// owner is inferred from the path.
	Owner string

	// Description is a human-readable description.
	Description string
}

var windowsEnvPattern = regexp.MustCompile(`%([A-Za-z0-9_()]+)%`)

// Expand resolves environment variables in a path, supporting both
// Windows %VAR% and Unix $VAR / ${VAR} syntax. Unknown %VAR% references
// are left untouched.
func Expand(path string) string {
	path = windowsEnvPattern.ReplaceAllStringFunc(path, func(m string) string {
		name := strings.Trim(m, "%")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return m
	})
	return os.ExpandEnv(path)
}

// userProfile returns the user profile directory.
func userProfile() string {
	if p := os.Getenv("USERPROFILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return home
}

// LocalAppData returns the local app data directory.
// Falls back to %USERPROFILE%\AppData\Local if %LOCALAPPDATA% is not set.
func LocalAppData() string {
	if p := os.Getenv("LOCALAPPDATA"); p != "" {
		return p
	}
	return filepath.Join(userProfile(), "AppData", "Local")
}

// appData returns the roaming app data directory.
func appData() string {
	if p := os.Getenv("APPDATA"); p != "" {
		return p
	}
	return filepath.Join(userProfile(), "AppData", "Roaming")
}

// DefaultConfigPath returns %APPDATA%\wslmole\config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(appData(), "wslmole", "config.yaml")
}

// GetDiskLocations returns the conventional VHDX locations followed by the
// user's extra patterns, all with the environment expanded.
func GetDiskLocations(extra []string) []DiskLocation {
	local := LocalAppData()
	home := userProfile()

	locs := []DiskLocation{
		// ── Store-installed distributions ───────────────────────
		{
			Pattern:     filepath.Join(local, "Packages", "*", "LocalState", DiskFileName),
			Description: "Microsoft Store distribution",
		},

		// ── wsl --install (WSL 2.x) ─────────────────────────────
		{
			Pattern:     filepath.Join(home, "AppData", "Local", "wsl", "*", DiskFileName),
			Description: "WSL-managed distribution",
		},

		// ── Docker Desktop ──────────────────────────────────────
		{
			Pattern:     filepath.Join(local, "Docker", "wsl", "data", DiskFileName),
			Owner:       "docker-desktop-data",
			Description: "Docker Desktop data disk",
		},
		{
			Pattern:     filepath.Join(local, "Docker", "wsl", "main", DiskFileName),
			Owner:       "docker-desktop",
			Description: "Docker Desktop engine disk",
		},
		{
			Pattern:     filepath.Join(local, "Docker", "wsl", "disk", "docker_data.vhdx"),
			Owner:       "docker-desktop",
			Description: "Docker Desktop data disk (4.30+)",
		},
	}

	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		locs = append(locs, DiskLocation{
			Pattern:     Expand(p),
			Description: "User-configured location",
		})
	}
	return locs
}

// ScanRoot is the directory walked by the recursive fallback scan.
func ScanRoot() string {
	return LocalAppData()
}
