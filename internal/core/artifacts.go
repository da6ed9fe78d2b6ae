package core

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// DiskArtifacts stores raw uploads as files under a directory.
type DiskArtifacts struct {
	dir string
}

// NewDiskArtifacts creates dir if needed and returns a store rooted there.
func NewDiskArtifacts(dir string) (*DiskArtifacts, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskArtifacts{dir: dir}, nil
}

// Save writes data to csv-<unix-ms>-<random>.csv and returns its path.
// The original name is not used on disk.
func (d *DiskArtifacts) Save(ctx context.Context, originalName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("csv-%d-%d.csv", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
	path := filepath.Join(d.dir, name)

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// Remove deletes the artifact. A missing file is not an error.
func (d *DiskArtifacts) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}
