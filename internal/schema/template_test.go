package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabload/tabload/internal/schema"
)

func TestNewTableRoot(t *testing.T) {
	table := schema.NewTable("orders", "", []schema.Column{
		{Name: "id", DataType: schema.TypeBigInt},
	})

	require.Equal(t, "orders", table.Name)
	require.Empty(t, table.Parent)
	require.Equal(t, schema.DispositionAppend, table.WriteDisposition)
	require.Contains(t, table.Columns, "id")
}

func TestNewTableChildHasNoDisposition(t *testing.T) {
	table := schema.NewTable("orders__items", "orders", nil)

	require.Equal(t, "orders", table.Parent)
	require.Empty(t, table.WriteDisposition)
	require.Empty(t, table.Columns)
	require.NotNil(t, table.Columns)
}

func TestSystemTables(t *testing.T) {
	version := schema.VersionTable()
	require.Equal(t, schema.VersionTableName, version.Name)
	require.Equal(t, schema.DispositionSkip, version.WriteDisposition)
	for _, col := range []string{"version", "engine_version", "inserted_at"} {
		require.Contains(t, version.Columns, col)
		require.False(t, version.Columns[col].Nullable)
		require.NotNil(t, version.Columns[col].Partition, "columns are in working form")
	}

	loads := schema.LoadTable()
	require.Equal(t, schema.LoadsTableName, loads.Name)
	require.Equal(t, schema.DispositionSkip, loads.WriteDisposition)
	for _, col := range []string{"load_id", "status", "inserted_at"} {
		require.Contains(t, loads.Columns, col)
		require.NotNil(t, loads.Columns[col].ForeignKey)
	}
	require.Equal(t, schema.TypeText, loads.Columns["load_id"].DataType)
}

func TestNewStoredSchema(t *testing.T) {
	sch := schema.NewStoredSchema("My Event-Stream")

	require.Equal(t, "myeventstream", sch.Name)
	require.Equal(t, schema.EngineVersion, sch.EngineVersion)
	require.Contains(t, sch.Tables, schema.VersionTableName)
	require.Contains(t, sch.Tables, schema.LoadsTableName)
	require.NotEmpty(t, sch.Normalizers.Names)
	require.NotNil(t, sch.Settings.DefaultHints)
	require.NotNil(t, sch.Settings.PreferredTypes)
}
