//go:build windows

package vhdx

import (
	"golang.org/x/sys/windows/registry"
)

// lxssPath is where WSL records per-user distribution registrations.
const lxssPath = `Software\Microsoft\Windows\CurrentVersion\Lxss`

// lxssRegistry reads HKCU\...\Lxss.
type lxssRegistry struct{}

// DefaultRegistry returns the current user's Lxss registry reader.
func DefaultRegistry() RegistryReader {
	return lxssRegistry{}
}

// Entries enumerates the {GUID} subkeys and reads their name and base path.
func (lxssRegistry) Entries() ([]RegistryEntry, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, lxssPath, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	subkeys, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	var entries []RegistryEntry
	for _, id := range subkeys {
		entry, readErr := readEntry(lxssPath + `\` + id)
		if readErr != nil {
			continue
		}
		entry.ID = id
		entries = append(entries, entry)
	}
	return entries, nil
}

func readEntry(path string) (RegistryEntry, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		return RegistryEntry{}, err
	}
	defer key.Close()

	return RegistryEntry{
		DistributionName: readStringValue(key, "DistributionName"),
		BasePath:         readStringValue(key, "BasePath"),
	}, nil
}

// readStringValue returns an empty string on any error.
func readStringValue(key registry.Key, name string) string {
	val, _, err := key.GetStringValue(name)
	if err != nil {
		return ""
	}
	return val
}
