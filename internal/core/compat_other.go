//go:build !windows

package core

import (
	"os"
	"runtime"
)

// GetWindowsVersion returns zeros off Windows.
func GetWindowsVersion() (major, minor, build uint32) {
	return 0, 0, 0
}

// SupportsWSL2 is always false off Windows.
func SupportsWSL2() bool {
	return false
}

// WindowsVersionString names the host platform.
func WindowsVersionString() string {
	return runtime.GOOS + " (not Windows)"
}

// IsElevated reports whether the process runs as root.
func IsElevated() bool {
	return os.Geteuid() == 0
}
