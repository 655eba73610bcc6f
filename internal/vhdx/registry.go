package vhdx

// RegistryEntry is one distribution registered under the Lxss key.
type RegistryEntry struct {
	ID               string
	DistributionName string
	BasePath         string
}

// RegistryReader returns the registered distributions.
type RegistryReader interface {
	Entries() ([]RegistryEntry, error)
}

// StaticRegistry is a fixed set of entries.
type StaticRegistry []RegistryEntry

// Entries implements RegistryReader.
func (s StaticRegistry) Entries() ([]RegistryEntry, error) {
	return s, nil
}
