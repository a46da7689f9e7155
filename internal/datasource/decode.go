package datasource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// Formats understood by the file based sources.
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// formatOf picks a decoder from the file extension. Unknown extensions
// are read as CSV.
func formatOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	}
	return FormatCSV
}

func decode(format string, payload []byte) (models.Dataset, error) {
	switch format {
	case FormatJSON:
		return models.ParseDataset(payload)
	case FormatParquet:
		return readParquet(bytes.NewReader(payload), int64(len(payload)))
	}
	return readCSV(bytes.NewReader(payload))
}

// readCSV reads a header row followed by records. Numeric cells become
// float64 and empty cells nil; everything else stays a string.
func readCSV(r io.Reader) (models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.RowsDataset(), nil
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := []models.Row{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Dataset{}, fmt.Errorf("read csv: %w", err)
		}
		var row models.Row
		for i, col := range header {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			row.Set(col, inferCell(cell))
		}
		rows = append(rows, row)
	}
	return models.Dataset{Rows: rows}, nil
}

func inferCell(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}

const parquetBatch = 256

// readParquet reads every row, keeping the schema's column order. Maps
// carry no schema of their own, so the file footer supplies it.
func readParquet(r io.ReaderAt, size int64) (models.Dataset, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return models.Dataset{}, errs.NewValidationError("invalid parquet file: " + err.Error())
	}
	reader := parquet.NewGenericReader[map[string]any](r, f.Schema())
	defer reader.Close()

	var columns []string
	for _, f := range reader.Schema().Fields() {
		columns = append(columns, f.Name())
	}

	rows := []models.Row{}
	batch := make([]map[string]any, parquetBatch)
	for {
		for i := range batch {
			batch[i] = make(map[string]any, len(columns))
		}
		n, err := reader.Read(batch)
		for i := 0; i < n; i++ {
			var row models.Row
			for _, col := range columns {
				row.Set(col, normalize(batch[i][col]))
			}
			rows = append(rows, row)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Dataset{}, fmt.Errorf("read parquet: %w", err)
		}
	}
	return models.Dataset{Rows: rows}, nil
}

// normalize maps driver and codec values onto JSON friendly types.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}
	return v
}
