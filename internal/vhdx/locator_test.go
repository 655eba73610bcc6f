package vhdx

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"pgregory.net/rapid"

	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

type staticLister []string

func (s staticLister) ListDistributions(context.Context) ([]wsl.Distribution, error) {
	var out []wsl.Distribution
	for _, n := range s {
		out = append(out, wsl.Distribution{Name: n, State: wsl.StateStopped, Version: 2})
	}
	return out, nil
}

type failingLister struct{}

func (failingLister) ListDistributions(context.Context) ([]wsl.Distribution, error) {
	return nil, errors.New("wsl.exe not installed")
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// makeDisk creates a sparse file of the given size.
func makeDisk(t *testing.T, path string, size int64) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistryAndKnownPathAreDeduplicated(t *testing.T) {
	root := t.TempDir()
	disk := makeDisk(t, filepath.Join(root, "wsl", "Ubuntu", config.DiskFileName), 2048)

	l := NewLocator(Options{
		Lister:    staticLister{"Ubuntu"},
		Registry:  StaticRegistry{{ID: "{1}", DistributionName: "Ubuntu", BasePath: `\\?\` + filepath.Dir(disk)}},
		Locations: []config.DiskLocation{{Pattern: filepath.Join(root, "wsl", "*", config.DiskFileName)}},
		Logger:    quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	want := []VirtualDiskFile{{Path: disk, Owner: "Ubuntu", Size: 2048, Source: SourceRegistry}}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestKnownPathFixedOwnerAndOrphans(t *testing.T) {
	root := t.TempDir()
	docker := makeDisk(t, filepath.Join(root, "Docker", "wsl", "data", config.DiskFileName), 4096)
	stray := makeDisk(t, filepath.Join(root, "wsl", "mystery", config.DiskFileName), 1024)

	l := NewLocator(Options{
		Lister:   staticLister{"Ubuntu"},
		Registry: StaticRegistry(nil),
		Locations: []config.DiskLocation{
			{Pattern: filepath.Join(root, "Docker", "wsl", "data", config.DiskFileName), Owner: "docker-desktop-data"},
			{Pattern: filepath.Join(root, "wsl", "*", config.DiskFileName)},
		},
		Logger: quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	want := []VirtualDiskFile{
		{Path: docker, Owner: "docker-desktop-data", Size: 4096, Source: SourceKnownPath},
		{Path: stray, Owner: "", Size: 1024, Source: SourceKnownPath},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if !files[1].Orphan() {
		t.Error("unattributed file should be an orphan")
	}
}

func TestScanRunsForUnresolvedDistribution(t *testing.T) {
	root := t.TempDir()
	ubuntu := makeDisk(t, filepath.Join(root, "reg", "Ubuntu", config.DiskFileName), 100)
	debian := makeDisk(t, filepath.Join(root, "local", "Vendor", "Debian", "disk.VHDX"), 300)

	l := NewLocator(Options{
		Lister:   staticLister{"Ubuntu", "Debian"},
		Registry: StaticRegistry{{DistributionName: "Ubuntu", BasePath: filepath.Dir(ubuntu)}},
		ScanRoot: filepath.Join(root, "local"),
		Logger:   quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	want := []VirtualDiskFile{
		{Path: debian, Owner: "Debian", Size: 300, Source: SourceScan},
		{Path: ubuntu, Owner: "Ubuntu", Size: 100, Source: SourceRegistry},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSkippedWhenAllResolved(t *testing.T) {
	root := t.TempDir()
	ubuntu := makeDisk(t, filepath.Join(root, "reg", "Ubuntu", config.DiskFileName), 100)
	makeDisk(t, filepath.Join(root, "local", "other.vhdx"), 50)

	l := NewLocator(Options{
		Lister:   staticLister{"Ubuntu"},
		Registry: StaticRegistry{{DistributionName: "Ubuntu", BasePath: filepath.Dir(ubuntu)}},
		ScanRoot: filepath.Join(root, "local"),
		Logger:   quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	if len(files) != 1 || files[0].Path != ubuntu {
		t.Fatalf("scan should not run when every distribution is resolved, got %#v", files)
	}
}

func TestMissingRegistryDiskIsDropped(t *testing.T) {
	root := t.TempDir()
	l := NewLocator(Options{
		Lister:   staticLister{"Ghost"},
		Registry: StaticRegistry{{DistributionName: "Ghost", BasePath: filepath.Join(root, "gone")}},
		Logger:   quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %#v", files)
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	disk := makeDisk(t, filepath.Join(root, "Ubuntu", config.DiskFileName), 10)

	l := NewLocator(Options{
		Lister:   staticLister{"Ubuntu", "Debian"},
		Registry: StaticRegistry{{DistributionName: "Ubuntu", BasePath: filepath.Dir(disk)}},
		Logger:   quietLogger(),
	})

	f, err := l.Resolve(context.Background(), "ubuntu")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.Path != disk {
		t.Errorf("Resolve path = %s, want %s", f.Path, disk)
	}

	if _, err := l.Resolve(context.Background(), "Debian"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvePrefersSystemDisk(t *testing.T) {
	root := t.TempDir()
	system := makeDisk(t, filepath.Join(root, "main", config.DiskFileName), 10)
	data := makeDisk(t, filepath.Join(root, "disk", "docker_data.vhdx"), 100)

	l := NewLocator(Options{
		Lister:    staticLister{"docker-desktop"},
		Registry:  StaticRegistry{},
		Locations: []config.DiskLocation{{Pattern: data, Owner: "docker-desktop"}, {Pattern: system, Owner: "docker-desktop"}},
		Logger:    quietLogger(),
	})

	f, err := l.Resolve(context.Background(), "docker-desktop")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.Path != system {
		t.Errorf("Resolve path = %s, want %s", f.Path, system)
	}
}

func TestListerFailureStillUsesRegistry(t *testing.T) {
	root := t.TempDir()
	disk := makeDisk(t, filepath.Join(root, "Ubuntu", config.DiskFileName), 10)

	l := NewLocator(Options{
		Lister:   failingLister{},
		Registry: StaticRegistry{{DistributionName: "Ubuntu", BasePath: filepath.Dir(disk)}},
		Logger:   quietLogger(),
	})

	files, err := l.FindVirtualDiskFiles(context.Background())
	if err != nil {
		t.Fatalf("FindVirtualDiskFiles: %v", err)
	}
	if len(files) != 1 || files[0].Owner != "Ubuntu" {
		t.Fatalf("unexpected files %#v", files)
	}
}

func TestInferOwnerPrefersLongestName(t *testing.T) {
	names := []string{"Ubuntu", "Ubuntu-22.04", "Debian"}
	tests := []struct {
		path string
		want string
	}{
		{`C:\wsl\Ubuntu-22.04\ext4.vhdx`, "Ubuntu-22.04"},
		{`C:\wsl\ubuntu\ext4.vhdx`, "Ubuntu"},
		{`C:\wsl\Arch\ext4.vhdx`, ""},
	}
	for _, tt := range tests {
		if got := inferOwner(tt.path, names); got != tt.want {
			t.Errorf("inferOwner(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// ─── Properties ──────────────────────────────────────────────────────────────

type fakeInfo struct {
	size int64
}

func (f fakeInfo) Name() string       { return config.DiskFileName }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() os.FileMode  { return 0644 }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return false }
func (f fakeInfo) Sys() any           { return nil }

func TestMergeNeverReturnsDuplicates(t *testing.T) {
	pool := []string{"/wsl/Ubuntu/ext4.vhdx", "/wsl/Debian/ext4.vhdx", "/docker/data/ext4.vhdx"}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		var found []candidate
		for i := 0; i < n; i++ {
			p := rapid.SampledFrom(pool).Draw(t, "path")
			if rapid.Bool().Draw(t, "upper") {
				p = strings.ToUpper(p)
			}
			src := Source(rapid.IntRange(0, 2).Draw(t, "source"))
			found = append(found, candidate{path: p, source: src})
		}

		l := NewLocator(Options{Registry: StaticRegistry(nil), Logger: quietLogger()})
		l.stat = func(p string) (os.FileInfo, error) {
			return fakeInfo{size: int64(len(p))}, nil
		}

		files := l.merge(found, []string{"Ubuntu", "Debian"})

		keys := make(map[string]bool)
		for _, f := range files {
			k := dedupKey(f.Path)
			if keys[k] {
				t.Fatalf("duplicate path %s in %#v", f.Path, files)
			}
			keys[k] = true
		}
		distinct := make(map[string]bool)
		for _, c := range found {
			distinct[dedupKey(c.path)] = true
		}
		if len(keys) != len(distinct) {
			t.Fatalf("expected %d files, got %d", len(distinct), len(keys))
		}
		for i := 1; i < len(files); i++ {
			if files[i-1].Size < files[i].Size {
				t.Fatalf("files not sorted by size: %#v", files)
			}
		}
	})
}

func TestPrimary(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{`C:\Users\me\AppData\Local\wsl\Ubuntu\ext4.vhdx`, true},
		{`C:\Users\me\AppData\Local\wsl\Ubuntu\EXT4.VHDX`, true},
		{"/mnt/c/wsl/Ubuntu/ext4.vhdx", true},
		{`C:\Users\me\AppData\Local\Docker\wsl\disk\docker_data.vhdx`, false},
		{`D:\backup\ext4.vhdx.bak`, false},
	}
	for _, tt := range tests {
		if got := (VirtualDiskFile{Path: tt.path}).Primary(); got != tt.want {
			t.Errorf("Primary(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
