// Package vhdx finds the virtual disk files that back WSL distributions.
package vhdx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

// ErrNotFound means no disk file could be attributed to a distribution.
var ErrNotFound = errors.New("vhdx not found")

// Source records which producer discovered a file.
type Source int

const (
	SourceRegistry Source = iota
	SourceKnownPath
	SourceScan
)

func (s Source) String() string {
	switch s {
	case SourceRegistry:
		return "registry"
	case SourceKnownPath:
		return "known-path"
	case SourceScan:
		return "scan"
	}
	return "unknown"
}

// VirtualDiskFile is one discovered disk image.
type VirtualDiskFile struct {
	Path string
	// Owner is the distribution the file belongs to; empty for orphans.
	Owner  string
	Size   int64
	Source Source
}

// Orphan reports whether no distribution could be attributed.
func (f VirtualDiskFile) Orphan() bool {
	return f.Owner == ""
}

// Primary reports whether the file is the distribution's own system disk,
// the one wsl.exe manages. Windows separators are honoured on every platform.
func (f VirtualDiskFile) Primary() bool {
	base := f.Path[strings.LastIndexAny(f.Path, `\/`)+1:]
	return strings.EqualFold(base, config.DiskFileName)
}

// candidate is a producer hit before it is merged and measured.
type candidate struct {
	path   string
	owner  string
	source Source
}

// Lister enumerates distributions. *wsl.Client satisfies it.
type Lister interface {
	ListDistributions(ctx context.Context) ([]wsl.Distribution, error)
}

// Options configures a Locator.
type Options struct {
	Lister Lister
	// Registry reads the per-user WSL registration. Nil uses the platform
	// default (a no-op outside Windows).
	Registry RegistryReader
	// Locations are the conventional glob patterns to check.
	Locations []config.DiskLocation
	// ScanRoot is walked when the cheaper producers leave gaps. Empty
	// disables the scan.
	ScanRoot string
	Logger   logrus.FieldLogger
}

// Locator merges the registry, known-path and scan producers.
type Locator struct {
	lister    Lister
	registry  RegistryReader
	locations []config.DiskLocation
	scanRoot  string
	logger    logrus.FieldLogger

	stat func(string) (os.FileInfo, error)
	glob func(string) ([]string, error)
}

// NewLocator returns a Locator for the given options.
func NewLocator(opts Options) *Locator {
	l := &Locator{
		lister:    opts.Lister,
		registry:  opts.Registry,
		locations: opts.Locations,
		scanRoot:  opts.ScanRoot,
		logger:    opts.Logger,
		stat:      os.Stat,
		glob:      filepath.Glob,
	}
	if l.registry == nil {
		l.registry = DefaultRegistry()
	}
	if l.logger == nil {
		l.logger = logrus.StandardLogger()
	}
	return l
}

// FindVirtualDiskFiles returns every disk file the producers can see,
// de-duplicated, measured and sorted by size descending.
func (l *Locator) FindVirtualDiskFiles(ctx context.Context) ([]VirtualDiskFile, error) {
	names := l.distributionNames(ctx)

	var found []candidate
	found = append(found, l.fromRegistry()...)
	found = append(found, l.fromKnownPaths()...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.scanRoot != "" && needsScan(found, names) {
		l.logger.WithField("root", l.scanRoot).Debug("scanning for vhdx files")
		hits, err := scanForDisks(ctx, l.scanRoot, l.logger)
		if err != nil {
			return nil, err
		}
		for _, p := range hits {
			found = append(found, candidate{path: p, source: SourceScan})
		}
	}

	return l.merge(found, names), nil
}

// Resolve returns the disk file owned by name, preferring its system disk
// when the distribution owns more than one.
func (l *Locator) Resolve(ctx context.Context, name string) (VirtualDiskFile, error) {
	files, err := l.FindVirtualDiskFiles(ctx)
	if err != nil {
		return VirtualDiskFile{}, err
	}
	var found *VirtualDiskFile
	for i, f := range files {
		if !strings.EqualFold(f.Owner, name) {
			continue
		}
		if f.Primary() {
			return f, nil
		}
		if found == nil {
			found = &files[i]
		}
	}
	if found == nil {
		return VirtualDiskFile{}, fmt.Errorf("%w for %q", ErrNotFound, name)
	}
	return *found, nil
}

// ─── Producers ───────────────────────────────────────────────────────────────

func (l *Locator) distributionNames(ctx context.Context) []string {
	if l.lister == nil {
		return nil
	}
	dists, err := l.lister.ListDistributions(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("cannot list distributions; owners will be inferred from the registry only")
		return nil
	}
	names := make([]string, 0, len(dists))
	for _, d := range dists {
		names = append(names, d.Name)
	}
	return names
}

func (l *Locator) fromRegistry() []candidate {
	entries, err := l.registry.Entries()
	if err != nil {
		l.logger.WithError(err).Debug("lxss registry unavailable")
		return nil
	}
	var out []candidate
	for _, e := range entries {
		if e.BasePath == "" {
			continue
		}
		out = append(out, candidate{
			path:   filepath.Join(cleanBasePath(e.BasePath), config.DiskFileName),
			owner:  e.DistributionName,
			source: SourceRegistry,
		})
	}
	return out
}

func (l *Locator) fromKnownPaths() []candidate {
	var out []candidate
	for _, loc := range l.locations {
		matches, err := l.glob(loc.Pattern)
		if err != nil {
			l.logger.WithError(err).WithField("pattern", loc.Pattern).Warn("bad location pattern")
			continue
		}
		for _, m := range matches {
			out = append(out, candidate{path: m, owner: loc.Owner, source: SourceKnownPath})
		}
	}
	return out
}

// ─── Merge ───────────────────────────────────────────────────────────────────

// needsScan reports whether a distribution is still unaccounted for or
// nothing was found at all.
func needsScan(found []candidate, names []string) bool {
	if len(found) == 0 {
		return true
	}
	for _, n := range names {
		resolved := false
		for _, c := range found {
			owner := c.owner
			if owner == "" {
				owner = inferOwner(c.path, names)
			}
			if strings.EqualFold(owner, n) {
				resolved = true
				break
			}
		}
		if !resolved {
			return true
		}
	}
	return false
}

func (l *Locator) merge(found []candidate, names []string) []VirtualDiskFile {
	seen := make(map[string]bool)
	var files []VirtualDiskFile

	for _, c := range found {
		key := dedupKey(c.path)
		if seen[key] {
			continue
		}
		seen[key] = true

		info, err := l.stat(c.path)
		if err != nil {
			if !os.IsNotExist(err) {
				l.logger.WithError(err).WithField("path", c.path).Warn("cannot read vhdx size")
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		owner := c.owner
		if owner == "" {
			owner = inferOwner(c.path, names)
		}
		files = append(files, VirtualDiskFile{
			Path:   c.path,
			Owner:  owner,
			Size:   info.Size(),
			Source: c.source,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Size > files[j].Size
	})
	return files
}

// dedupKey normalises a path for case-insensitive comparison.
func dedupKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return strings.ToLower(filepath.Clean(path))
}

// inferOwner picks the longest distribution name contained in the path.
func inferOwner(path string, names []string) string {
	lower := strings.ToLower(path)
	best := ""
	for _, n := range names {
		if n == "" || !strings.Contains(lower, strings.ToLower(n)) {
			continue
		}
		if len(n) > len(best) {
			best = n
		}
	}
	return best
}

// cleanBasePath strips the \\?\ long-path prefix the registry sometimes
// stores.
func cleanBasePath(p string) string {
	p = strings.TrimPrefix(p, `\\?\`)
	return filepath.Clean(p)
}
