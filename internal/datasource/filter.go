package datasource

import (
	"fmt"
	"strconv"

	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// ApplyFilters keeps the rows equal to every active filter. Filters on
// columns the rows do not carry are ignored. Object payloads pass through.
func ApplyFilters(ds models.Dataset, f filters.State) models.Dataset {
	if !ds.IsSequence() || len(ds.Rows) == 0 {
		return ds
	}
	columns := make(map[string]struct{})
	for _, k := range ds.Rows[0].Keys() {
		columns[k] = struct{}{}
	}
	var active []string
	for _, name := range f.Active() {
		if _, ok := columns[name]; ok {
			active = append(active, name)
		}
	}
	if len(active) == 0 {
		return ds
	}

	out := []models.Row{}
	for _, r := range ds.Rows {
		if matches(r, f, active) {
			out = append(out, r)
		}
	}
	return models.Dataset{Rows: out}
}

func matches(r models.Row, f filters.State, names []string) bool {
	for _, name := range names {
		v, _ := r.Get(name)
		if CellString(v) != f[name] {
			return false
		}
	}
	return true
}

// CellString renders a cell the way a filter option is written, so 2024.0
// read from a csv matches the option "2024".
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// Limit truncates a row sequence to at most n rows. n <= 0 means no limit.
func Limit(ds models.Dataset, n int) models.Dataset {
	if n <= 0 || !ds.IsSequence() || len(ds.Rows) <= n {
		return ds
	}
	return models.Dataset{Rows: ds.Rows[:n]}
}
