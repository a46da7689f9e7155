// Package datasource reads widget datasets from the configured connectors.
package datasource

import (
	"context"
	"sort"
	"sync"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// Source kinds as they appear in WidgetConfig.Source.
const (
	KindLocal   = "local"
	KindParquet = "parquet"
	KindSQL     = "sql"
	KindS3      = "s3"
	KindAPI     = "api"
)

// Source reads the dataset at path. The meaning of path is per source: a
// file under the data root, a table name, an s3 URL or an HTTP URL.
type Source interface {
	Read(ctx context.Context, path string) (models.Dataset, error)
}

type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(kind string, s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[kind] = s
}

// Lookup resolves a source kind. An empty kind means local.
func (r *Registry) Lookup(kind string) (Source, error) {
	if kind == "" {
		kind = KindLocal
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[kind]
	if !ok {
		return nil, errs.NewValidationError("unknown or unconfigured data source: " + kind)
	}
	return s, nil
}

// Kinds lists the registered source kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.sources))
	for k := range r.sources {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
