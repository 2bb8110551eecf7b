// Package assets lists flag images laid out as <root>/<Region>/<Region-Country>.png.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"flag-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// DirCatalog enumerates flags from a file tree, one directory per region.
type DirCatalog struct {
	fsys      fs.FS
	extension string
	logger    *zap.Logger
}

func NewDirCatalog(fsys fs.FS, extension string, logger *zap.Logger) *DirCatalog {
	if extension == "" {
		extension = ".png"
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirCatalog{fsys: fsys, extension: extension, logger: logger}
}

// ListFlags returns the identifiers of the region's images with the extension removed.
func (c *DirCatalog) ListFlags(ctx context.Context, region string) ([]domain.FlagID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(region) || strings.Contains(region, "/") {
		return nil, domain.ErrRegionNotFound
	}
	entries, err := fs.ReadDir(c.fsys, region)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrRegionNotFound
		}
		return nil, fmt.Errorf("read region dir: %w", err)
	}

	flags := make([]domain.FlagID, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, c.extension) {
			continue
		}
		id, err := domain.ParseFlagID(strings.TrimSuffix(name, c.extension))
		if err != nil {
			c.logger.Warn("ignoring asset", zap.String("region", region), zap.String("file", name))
			continue
		}
		// Image paths are derived from the id, so the file must sit in its own region.
		if id.Region() != region {
			c.logger.Warn("ignoring asset filed under another region",
				zap.String("region", region), zap.String("file", name))
			continue
		}
		flags = append(flags, id)
	}
	return flags, nil
}

// Regions lists the region directories.
func (c *DirCatalog) Regions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(c.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read catalog root: %w", err)
	}
	regions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			regions = append(regions, entry.Name())
		}
	}
	sort.Strings(regions)
	return regions, nil
}

// FS exposes the underlying file tree for serving images.
func (c *DirCatalog) FS() fs.FS { return c.fsys }
