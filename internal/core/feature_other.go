//go:build !windows

package core

import "context"

// OptionalFeatureEnabled has no WMI to ask off Windows.
func OptionalFeatureEnabled(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return false, ErrQueryUnavailable
}
