// Package compact shuts WSL down and shrinks distribution disks, falling
// back through the compaction strategies the host supports.
package compact

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

// StrategyID names a compaction method.
type StrategyID string

const (
	StrategyModern      StrategyID = "modern"
	StrategyDiskpart    StrategyID = "diskpart"
	StrategyOptimizeVHD StrategyID = "optimize-vhd"
)

// StrategyIDs lists the strategies in their fixed fallback order.
var StrategyIDs = []StrategyID{StrategyModern, StrategyDiskpart, StrategyOptimizeVHD}

// ParseStrategyID accepts a strategy name, case-insensitively. The empty
// string yields "" (no preference).
func ParseStrategyID(s string) (StrategyID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, id := range StrategyIDs {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (want modern, diskpart or optimize-vhd)", s)
}

// Strategy is one way of compacting a disk.
type Strategy interface {
	ID() StrategyID
	// CheckSupported returns nil or an error wrapping ErrStrategyUnsupported.
	CheckSupported(ctx context.Context, target vhdx.VirtualDiskFile) error
	// Attempt returns nil, or an error wrapping ErrStrategyFailed or
	// ErrStrategyUnsupported.
	Attempt(ctx context.Context, target vhdx.VirtualDiskFile) error
}

