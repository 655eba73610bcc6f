//go:build windows

package vhdx

import (
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// isReparsePoint returns true if the path is a Windows junction or symlink
// (FILE_ATTRIBUTE_REPARSE_POINT). Must be checked to avoid infinite recursion.
func isReparsePoint(path string, _ fs.DirEntry) bool {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(pathp)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0
}

// longPath adds the \\?\ prefix for paths exceeding MAX_PATH.
func longPath(path string) string {
	if len(path) >= 260 && !strings.HasPrefix(path, `\\?\`) {
		return `\\?\` + filepath.Clean(path)
	}
	return path
}
