package destination

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

func postgresForTest(t *testing.T) *sqlClient {
	t.Helper()

	client, err := newPostgresClient("", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client.(*sqlClient)
}

func sqliteForTest(t *testing.T) *sqlClient {
	t.Helper()

	client, err := newSQLiteClient(":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client.(*sqlClient)
}

func TestCreateTableSQLPostgres(t *testing.T) {
	client := postgresForTest(t)

	f, tr := false, true
	table := schema.Table{
		Name: "orders",
		Columns: map[string]schema.Column{
			"id": {
				Name: "id", DataType: schema.TypeBigInt, Nullable: false,
				PrimaryKey: &tr, Partition: &f,
			},
			"total": {Name: "total", DataType: schema.TypeDecimal, Nullable: true},
			"meta":  {Name: "meta", DataType: schema.TypeComplex, Nullable: true},
		},
	}

	sql := client.createTableSQL(table)
	require.Equal(t,
		`CREATE TABLE IF NOT EXISTS "orders" (`+
			`"id" bigint NOT NULL, "meta" jsonb, "total" numeric(38,9), `+
			`PRIMARY KEY ("id"))`,
		sql,
	)
}

func TestCreateTableSQLSQLite(t *testing.T) {
	client := sqliteForTest(t)

	table := schema.Table{
		Name: "orders",
		Columns: map[string]schema.Column{
			"payload": {Name: "payload", DataType: schema.TypeBinary, Nullable: true},
			"wei":     {Name: "wei", DataType: schema.TypeWei, Nullable: true},
		},
	}

	sql := client.createTableSQL(table)
	require.Equal(t,
		`CREATE TABLE IF NOT EXISTS "orders" ("payload" BLOB, "wei" TEXT)`,
		sql,
	)
}

func TestInsertSQLPlaceholders(t *testing.T) {
	pg := postgresForTest(t)
	require.Equal(t,
		`INSERT INTO "orders" ("a", "b") VALUES ($1, $2)`,
		pg.insertSQL("orders", []string{"a", "b"}),
	)

	lite := sqliteForTest(t)
	require.Equal(t,
		`INSERT INTO "orders" ("a", "b") VALUES (?, ?)`,
		lite.insertSQL("orders", []string{"a", "b"}),
	)
}

func TestUnionColumns(t *testing.T) {
	rows := []map[string]any{
		{"b": 1, "a": 2},
		{"c": 3, "a": 4},
	}
	require.Equal(t, []string{"a", "b", "c"}, unionColumns(rows))
}

func TestSQLiteLoadRoundTrip(t *testing.T) {
	client := sqliteForTest(t)
	ctx := context.Background()

	require.NoError(t, client.InitializeStorage(ctx))

	sch := schema.NewStoredSchema("events")
	sch.Tables["orders"] = schema.NewTable("orders", "", []schema.Column{
		{Name: "id", DataType: schema.TypeBigInt, Nullable: false},
		{Name: "amount", DataType: schema.TypeWei, Nullable: true},
	})
	require.NoError(t, client.UpdateSchema(ctx, sch))

	rows := []map[string]any{
		{"id": int64(1), "amount": big.NewInt(1000000000000)},
		{"id": int64(2)},
	}
	require.NoError(t, client.LoadRows(ctx, "orders", rows))
	require.NoError(t, client.RecordSchemaUpdate(ctx, sch.EngineVersion))
	require.NoError(t, client.CompleteLoad(ctx, "load-1", 0))

	var count int
	require.NoError(t, client.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "orders"`).Scan(&count))
	require.Equal(t, 2, count)

	var amount string
	require.NoError(t, client.db.QueryRowContext(ctx,
		`SELECT "amount" FROM "orders" WHERE "id" = 1`).Scan(&amount))
	require.Equal(t, "1000000000000", amount)

	var status int64
	require.NoError(t, client.db.QueryRowContext(ctx,
		`SELECT "status" FROM "`+schema.LoadsTableName+`" WHERE "load_id" = 'load-1'`).Scan(&status))
	require.Equal(t, int64(0), status)
}

func TestCapabilities(t *testing.T) {
	pg := postgresForTest(t)
	caps := pg.Capabilities()
	require.Equal(t, "jsonl", caps.PreferredLoaderFormat)
	require.Equal(t, 63, caps.MaxIdentifierLength)
	require.True(t, caps.SupportsDDLTransactions)
	require.Equal(t, `"order"`, caps.EscapeIdentifier("order"))
}
