package chart

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func field(r models.Row, name string) any {
	v, _ := r.Get(name)
	return v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func boolOption(extra map[string]any, key string) bool {
	b, _ := extra[key].(bool)
	return b
}

func stringOption(extra map[string]any, key, fallback string) string {
	if s, ok := extra[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// payload returns the object-shaped input of statistical charts. A single
// row sequence is accepted too.
func payload(data models.Dataset) (models.Row, bool) {
	if data.Object != nil {
		return *data.Object, true
	}
	if len(data.Rows) == 1 {
		return data.Rows[0], true
	}
	return models.Row{}, false
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}
