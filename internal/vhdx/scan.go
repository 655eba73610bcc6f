package vhdx

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// scanForDisks walks root for *.vhdx files. Junctions, symlinks and
// unreadable directories are skipped rather than failing the walk.
func scanForDisks(ctx context.Context, root string, logger logrus.FieldLogger) ([]string, error) {
	var hits []string
	start := longPath(root)

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.WithError(err).WithField("path", path).Debug("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != start && isReparsePoint(path, d) {
				logger.WithField("path", path).Debug("skipping junction/reparse")
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".vhdx") {
			hits = append(hits, strings.TrimPrefix(path, `\\?\`))
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return hits, nil
}
