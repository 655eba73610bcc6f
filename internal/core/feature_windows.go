//go:build windows

package core

import (
	"context"
	"fmt"

	"github.com/yusufpapurcu/wmi"
)

// win32OptionalFeature mirrors the WMI class of the same name.
type win32OptionalFeature struct {
	Name         string
	InstallState uint32
}

// OptionalFeatureEnabled queries Win32_OptionalFeature for name.
// InstallState 1 means enabled.
func OptionalFeatureEnabled(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	type result struct {
		rows []win32OptionalFeature
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var rows []win32OptionalFeature
		q := fmt.Sprintf("SELECT Name, InstallState FROM Win32_OptionalFeature WHERE Name = '%s'", name)
		err := wmi.Query(q, &rows)
		done <- result{rows, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return false, fmt.Errorf("%w: %v", ErrQueryUnavailable, r.err)
		}
		for _, f := range r.rows {
			if f.InstallState == 1 {
				return true, nil
			}
		}
		return false, nil
	}
}
