//go:build !windows

package vhdx

// DefaultRegistry returns an empty reader; the Lxss key only exists on
// Windows.
func DefaultRegistry() RegistryReader {
	return StaticRegistry(nil)
}
