package load_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabload/tabload/internal/destination"
	"github.com/tabload/tabload/internal/load"
	"github.com/tabload/tabload/internal/schema"
)

// fakeClient records everything the loader sends to a destination.
type fakeClient struct {
	initialized   bool
	schemaUpdates int
	versionRecord int
	rows          map[string][]map[string]any
	completed     map[string]int64
	batches       int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		rows:      map[string][]map[string]any{},
		completed: map[string]int64{},
	}
}

func (f *fakeClient) Capabilities() destination.Capabilities {
	return destination.Capabilities{PreferredLoaderFormat: "jsonl"}
}

func (f *fakeClient) InitializeStorage(context.Context) error {
	f.initialized = true
	return nil
}

func (f *fakeClient) UpdateSchema(context.Context, *schema.StoredSchema) error {
	f.schemaUpdates++
	return nil
}

func (f *fakeClient) LoadRows(_ context.Context, table string, rows []map[string]any) error {
	f.rows[table] = append(f.rows[table], rows...)
	f.batches++
	return nil
}

func (f *fakeClient) RecordSchemaUpdate(_ context.Context, engineVersion int) error {
	f.versionRecord = engineVersion
	return nil
}

func (f *fakeClient) CompleteLoad(_ context.Context, loadID string, status int64) error {
	f.completed[loadID] = status
	return nil
}

func (f *fakeClient) Close() error {
	return nil
}

func writeRows(t *testing.T, lines string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadFileCoercesDeclaredColumns(t *testing.T) {
	sch := schema.NewStoredSchema("events")
	sch.Tables["orders"] = schema.NewTable("orders", "", []schema.Column{
		schema.ExpandColumnHints(schema.Column{Name: "id", DataType: schema.TypeBigInt, Nullable: false}),
		schema.ExpandColumnHints(schema.Column{Name: "placed_at", DataType: schema.TypeTimestamp, Nullable: true}),
	})

	dest := newFakeClient()
	loader := load.NewLoader(sch, dest, load.Options{})

	path := writeRows(t, `{"id": 1, "placed_at": 60}
{"id": 2, "placed_at": "2023-06-01T10:30:00Z"}
`)
	loadID, err := loader.LoadFile(context.Background(), "orders", path)
	require.NoError(t, err)
	require.NotEmpty(t, loadID)

	require.True(t, dest.initialized)
	require.Equal(t, 1, dest.schemaUpdates)
	require.Len(t, dest.rows["orders"], 2)

	// JSON numbers arrive as doubles and are coerced to the column type
	require.Equal(t, int64(1), dest.rows["orders"][0]["id"])
	require.Equal(t, "1970-01-01T00:01:00+00:00", dest.rows["orders"][0]["placed_at"])
	require.Equal(t, "2023-06-01T10:30:00Z", dest.rows["orders"][1]["placed_at"])

	require.Equal(t, load.LoadCompleted, dest.completed[loadID])
	require.False(t, loader.SchemaChanged())
}

func TestLoadFileInfersNewColumnsAndTables(t *testing.T) {
	sch := schema.NewStoredSchema("events")

	dest := newFakeClient()
	loader := load.NewLoader(sch, dest, load.Options{})

	path := writeRows(t, `{"id": 7, "note": "first", "score": 1.5, "tags": ["a"]}
`)
	_, err := loader.LoadFile(context.Background(), "signals", path)
	require.NoError(t, err)

	require.True(t, loader.SchemaChanged())
	require.Equal(t, sch.EngineVersion, dest.versionRecord)

	table := sch.Tables["signals"]
	require.Equal(t, schema.DispositionAppend, table.WriteDisposition)
	require.Equal(t, schema.TypeDouble, table.Columns["id"].DataType)
	require.Equal(t, schema.TypeText, table.Columns["note"].DataType)
	require.Equal(t, schema.TypeDouble, table.Columns["score"].DataType)
	require.Equal(t, schema.TypeComplex, table.Columns["tags"].DataType)
	require.True(t, table.Columns["note"].Nullable)

	// complex values land as JSON text
	require.Equal(t, `["a"]`, dest.rows["signals"][0]["tags"])
}

func TestLoadFileBatches(t *testing.T) {
	sch := schema.NewStoredSchema("events")
	sch.Tables["orders"] = schema.NewTable("orders", "", []schema.Column{
		schema.ExpandColumnHints(schema.Column{Name: "id", DataType: schema.TypeBigInt, Nullable: false}),
	})

	dest := newFakeClient()
	loader := load.NewLoader(sch, dest, load.Options{BatchSize: 2})

	path := writeRows(t, `{"id": 1}
{"id": 2}
{"id": 3}
`)
	_, err := loader.LoadFile(context.Background(), "orders", path)
	require.NoError(t, err)

	require.Equal(t, 2, dest.batches)
	require.Len(t, dest.rows["orders"], 3)
}

func TestLoadFileAbortsOnBadValue(t *testing.T) {
	sch := schema.NewStoredSchema("events")
	sch.Tables["orders"] = schema.NewTable("orders", "", []schema.Column{
		schema.ExpandColumnHints(schema.Column{Name: "id", DataType: schema.TypeBigInt, Nullable: false}),
	})

	dest := newFakeClient()
	loader := load.NewLoader(sch, dest, load.Options{})

	path := writeRows(t, `{"id": 2.5}
`)
	_, err := loader.LoadFile(context.Background(), "orders", path)
	require.Error(t, err)
	require.Empty(t, dest.rows)
	require.Empty(t, dest.completed)
}

func TestLoadFileNullValues(t *testing.T) {
	sch := schema.NewStoredSchema("events")
	sch.Tables["orders"] = schema.NewTable("orders", "", []schema.Column{
		schema.ExpandColumnHints(schema.Column{Name: "id", DataType: schema.TypeBigInt, Nullable: false}),
		schema.ExpandColumnHints(schema.Column{Name: "note", DataType: schema.TypeText, Nullable: true}),
	})

	dest := newFakeClient()
	loader := load.NewLoader(sch, dest, load.Options{})

	path := writeRows(t, `{"id": 1, "note": null}
`)
	_, err := loader.LoadFile(context.Background(), "orders", path)
	require.NoError(t, err)
	require.Nil(t, dest.rows["orders"][0]["note"])
}
