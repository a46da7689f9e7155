package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// LocalSource reads csv, json and parquet files below a root directory.
// Paths that escape the root are rejected.
type LocalSource struct {
	root   string
	format string
}

func NewLocalSource(root string) *LocalSource {
	return &LocalSource{root: root}
}

// NewParquetSource reads every file under root as parquet.
func NewParquetSource(root string) *LocalSource {
	return &LocalSource{root: root, format: FormatParquet}
}

func (s *LocalSource) Read(_ context.Context, name string) (models.Dataset, error) {
	full, err := s.resolve(name)
	if err != nil {
		return models.Dataset{}, err
	}
	format := s.format
	if format == "" {
		format = formatOf(full)
	}

	if format == FormatParquet {
		f, err := os.Open(full)
		if err != nil {
			return models.Dataset{}, s.openError(name, err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return models.Dataset{}, fmt.Errorf("stat %s: %w", name, err)
		}
		return readParquet(f, info.Size())
	}

	payload, err := os.ReadFile(full)
	if err != nil {
		return models.Dataset{}, s.openError(name, err)
	}
	return decode(format, payload)
}

func (s *LocalSource) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errs.NewValidationError("data path is required")
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	full := filepath.Join(root, filepath.Clean("/"+name))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", errs.NewValidationError("data path escapes the data root: " + name)
	}
	return full, nil
}

func (s *LocalSource) openError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errs.NewNotFoundError("data file not found: " + name)
	}
	return err
}
