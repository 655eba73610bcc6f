//go:build !windows

package vhdx

import "io/fs"

func isReparsePoint(_ string, d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

func longPath(path string) string {
	return path
}
