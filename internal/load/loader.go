// Package load turns row files into destination loads: values are
// classified, coerced to the declared column types, and written through a
// destination client under a tracked load ID.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/tabload/tabload/internal/coerce"
	"github.com/tabload/tabload/internal/destination"
	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

// LoadCompleted is the status recorded for a fully loaded batch.
const LoadCompleted int64 = 0

type Options struct {
	BatchSize int
	Logger    *logger.Logger
}

type Loader struct {
	schema        *schema.StoredSchema
	dest          destination.Client
	opts          Options
	schemaChanged bool
}

func NewLoader(sch *schema.StoredSchema, dest destination.Client, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Loader{schema: sch, dest: dest, opts: opts}
}

// SchemaChanged reports whether loading inferred tables or columns that are
// not yet persisted. The caller is responsible for saving the schema.
func (l *Loader) SchemaChanged() bool {
	return l.schemaChanged
}

// LoadFile loads a JSONL file into the named table and returns the load ID.
// Unknown columns are inferred from their first value and added to the
// schema. A coercion failure aborts the whole load; nothing is marked
// complete.
func (l *Loader) LoadFile(ctx context.Context, tableName, path string) (string, error) {
	log := l.opts.Logger

	table, ok := l.schema.Tables[tableName]
	if !ok {
		table = schema.NewTable(tableName, "", nil)
		l.schema.Tables[tableName] = table
		l.schemaChanged = true
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open row file: %w", err)
	}
	defer file.Close()

	var rows []map[string]any
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			return "", fmt.Errorf("failed to parse row %d: %w", len(rows)+1, err)
		}
		row, err := l.coerceRow(table, raw)
		if err != nil {
			return "", fmt.Errorf("row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	if err := l.dest.InitializeStorage(ctx); err != nil {
		return "", err
	}
	if err := l.dest.UpdateSchema(ctx, l.schema); err != nil {
		return "", err
	}
	if l.schemaChanged {
		if err := l.dest.RecordSchemaUpdate(ctx, l.schema.EngineVersion); err != nil {
			return "", err
		}
	}

	loadID := uuid.NewString()
	for start := 0; start < len(rows); start += l.opts.BatchSize {
		end := start + l.opts.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := l.dest.LoadRows(ctx, tableName, rows[start:end]); err != nil {
			return "", err
		}
	}

	if err := l.dest.CompleteLoad(ctx, loadID, LoadCompleted); err != nil {
		return "", err
	}

	log.WithSchema(l.schema.Name).Infof("Loaded %d rows into %s (load %s)", len(rows), tableName, loadID)
	return loadID, nil
}

// coerceRow converts one raw row to the table's column types, inferring
// columns for keys the table has not seen before.
func (l *Loader) coerceRow(table schema.Table, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		if value == nil {
			out[key] = nil
			continue
		}

		col, ok := table.Columns[key]
		if !ok {
			col = schema.ExpandColumnHints(schema.Column{
				Name:     key,
				DataType: coerce.Classify(value),
				Nullable: true,
			})
			table.Columns[key] = col
			l.schemaChanged = true
			l.opts.Logger.Debugf("Inferred column %s %s on table %s", key, col.DataType, table.Name)
		}

		coerced, err := coerce.Coerce(col.DataType, coerce.Classify(value), value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		out[key] = coerced
	}
	return out, nil
}
