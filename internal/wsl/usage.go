package wsl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
)

// ErrUsageUnavailable means df output inside a distribution could not be read.
var ErrUsageUnavailable = errors.New("filesystem usage unavailable")

// FilesystemUsage is the root filesystem usage inside a distribution, in bytes.
type FilesystemUsage struct {
	Size      int64
	Used      int64
	Available int64
}

// UsedPercent returns Used as a share of Size.
func (u FilesystemUsage) UsedPercent() float64 {
	if u.Size <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Size) * 100
}

// RootUsage runs `df -Pk /` inside the named distribution. This starts the
// distribution when it is stopped.
func (c *Client) RootUsage(ctx context.Context, name string) (FilesystemUsage, error) {
	if name == "" {
		return FilesystemUsage{}, fmt.Errorf("distribution name is required")
	}
	res, err := c.run(ctx, "-d", name, "--", "df", "-Pk", "/")
	if err != nil {
		return FilesystemUsage{}, fmt.Errorf("%w in %s: %v", ErrUsageUnavailable, name, err)
	}
	u, err := parseDF(res.Stdout)
	if err != nil {
		return FilesystemUsage{}, fmt.Errorf("%s: %w", name, err)
	}
	return u, nil
}

// parseDF reads POSIX `df -Pk` output:
//
//	Filesystem     1024-blocks     Used Available Capacity Mounted on
//	/dev/sdc         1055762868 12345678 989735822       2% /
func parseDF(text string) (FilesystemUsage, error) {
	for _, line := range shell.Lines(text) {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		var kb [3]int64
		ok := true
		for i := range kb {
			n, err := strconv.ParseInt(fields[i+1], 10, 64)
			if err != nil {
				ok = false
				break
			}
			kb[i] = n
		}
		if !ok {
			continue
		}
		return FilesystemUsage{Size: kb[0] * 1024, Used: kb[1] * 1024, Available: kb[2] * 1024}, nil
	}
	return FilesystemUsage{}, ErrUsageUnavailable
}
