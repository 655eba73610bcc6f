// Package core holds host checks shared by the commands: elevation,
// Windows build, optional features, volume usage and size formatting.
package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
)

// HyperVPowerShellFeature provides the Optimize-VHD cmdlet.
const HyperVPowerShellFeature = "Microsoft-Hyper-V-Management-PowerShell"

// ErrQueryUnavailable means the host cannot answer a capability query.
var ErrQueryUnavailable = errors.New("host query unavailable")

// VolumeStats describes the volume that holds a path.
type VolumeStats struct {
	Mount string
	Total uint64
	Free  uint64
	Used  uint64
}

// VolumeRoot returns the volume that contains path: "C:\" on Windows, the
// containing directory elsewhere.
func VolumeRoot(path string) string {
	if vol := filepath.VolumeName(path); vol != "" {
		return vol + string(filepath.Separator)
	}
	return filepath.Dir(path)
}

// VolumeUsage reports free and used space for the volume holding path.
func VolumeUsage(ctx context.Context, path string) (VolumeStats, error) {
	root := VolumeRoot(path)
	usage, err := disk.UsageWithContext(ctx, root)
	if err != nil {
		return VolumeStats{}, fmt.Errorf("volume usage for %s: %w", root, err)
	}
	return VolumeStats{
		Mount: root,
		Total: usage.Total,
		Free:  usage.Free,
		Used:  usage.Used,
	}, nil
}

// HostDescription returns "<platform> <version> (<arch>)" from gopsutil,
// falling back to the Windows build string.
func HostDescription(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info.Platform == "" {
		return WindowsVersionString()
	}
	return fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
}

// FormatSize renders bytes in IEC units ("1.5 GiB"). Negative sizes are
// shown as zero.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
