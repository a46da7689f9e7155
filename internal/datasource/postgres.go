package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads a whole table. The path is a table name, optionally
// schema qualified. Rows are not capped here: filters run on the full table
// and the row limit applies to what they keep.
type PostgresSource struct {
	db querier
}

func NewPostgresSource(db querier) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Read(ctx context.Context, table string) (models.Dataset, error) {
	ident, err := tableIdentifier(table)
	if err != nil {
		return models.Dataset{}, err
	}
	rows, err := s.db.Query(ctx, "SELECT * FROM "+ident.Sanitize())
	if err != nil {
		return models.Dataset{}, fmt.Errorf("query table %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []models.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return models.Dataset{}, fmt.Errorf("scan table %s: %w", table, err)
		}
		var row models.Row
		for i, f := range fields {
			row.Set(f.Name, pgValue(values[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return models.Dataset{}, fmt.Errorf("read table %s: %w", table, err)
	}
	return models.Dataset{Rows: out}, nil
}

func tableIdentifier(table string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(table), ".")
	if len(parts) > 2 {
		return nil, errs.NewValidationError("table must be name or schema.name, got " + table)
	}
	for _, p := range parts {
		if p == "" {
			return nil, errs.NewValidationError("table name is required")
		}
	}
	return pgx.Identifier(parts), nil
}

func pgValue(v any) any {
	if n, ok := v.(pgtype.Numeric); ok {
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return normalize(v)
}
