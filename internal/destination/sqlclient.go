package destination

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabload/tabload/internal/coerce"
	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

// dialect captures the per-destination SQL differences.
type dialect struct {
	name        string
	placeholder func(i int) string
	quote       func(ident string) string
	typeFor     map[schema.DataType]string
}

// sqlClient implements Client for SQL destinations over database/sql.
type sqlClient struct {
	db      *sql.DB
	dialect dialect
	caps    Capabilities
	log     *logger.Logger
}

func (c *sqlClient) Capabilities() Capabilities {
	return c.caps
}

func (c *sqlClient) Close() error {
	return c.db.Close()
}

// InitializeStorage creates the system tables if they do not exist yet.
func (c *sqlClient) InitializeStorage(ctx context.Context) error {
	for _, table := range []schema.Table{schema.VersionTable(), schema.LoadTable()} {
		if _, err := c.db.ExecContext(ctx, c.createTableSQL(table)); err != nil {
			return fmt.Errorf("failed to create system table %s: %w", table.Name, err)
		}
	}
	return nil
}

// UpdateSchema creates every table of the schema that does not exist yet.
// DDL runs in a transaction when the destination supports it.
func (c *sqlClient) UpdateSchema(ctx context.Context, s *schema.StoredSchema) error {
	c.log.WithSchema(s.Name).Infof("Updating schema on %s", c.dialect.name)

	statements := make([]string, 0, len(s.Tables))
	for _, name := range sortedTableNames(s.Tables) {
		statements = append(statements, c.createTableSQL(s.Tables[name]))
	}

	if !c.caps.SupportsDDLTransactions {
		for _, stmt := range statements {
			if _, err := c.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *sqlClient) createTableSQL(table schema.Table) string {
	columnNames := make([]string, 0, len(table.Columns))
	for name := range table.Columns {
		columnNames = append(columnNames, name)
	}
	sort.Strings(columnNames)

	var columnDefs []string
	var primaryKeys []string
	for _, name := range columnNames {
		col := table.Columns[name]
		def := fmt.Sprintf("%s %s", c.dialect.quote(name), c.dialect.typeFor[col.DataType])
		if !col.Nullable {
			def += " NOT NULL"
		}
		columnDefs = append(columnDefs, def)
		if col.PrimaryKey != nil && *col.PrimaryKey {
			primaryKeys = append(primaryKeys, c.dialect.quote(name))
		}
	}
	if len(primaryKeys) > 0 {
		columnDefs = append(columnDefs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		c.dialect.quote(table.Name),
		strings.Join(columnDefs, ", "),
	)
}

// LoadRows inserts a batch into one table inside a single transaction.
// Column order comes from the union of row keys so sparse rows insert NULL.
func (c *sqlClient) LoadRows(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	columns := unionColumns(rows)
	stmt := c.insertSQL(table, columns)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer prepared.Close()

	for _, row := range rows {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = driverArg(row[col])
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	c.log.Debugf("Inserted %d rows into %s", len(rows), table)
	return nil
}

func (c *sqlClient) insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = c.dialect.quote(col)
		placeholders[i] = c.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		c.dialect.quote(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// RecordSchemaUpdate appends a row to the version tracking table, numbering
// updates from the highest version already recorded.
func (c *sqlClient) RecordSchemaUpdate(ctx context.Context, engineVersion int) error {
	var current int64
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(version), 0) FROM %s",
		c.dialect.quote(schema.VersionTableName),
	)
	if err := c.db.QueryRowContext(ctx, query).Scan(&current); err != nil {
		return fmt.Errorf("failed to read current schema version: %w", err)
	}

	insert := c.insertSQL(schema.VersionTableName, []string{"engine_version", "inserted_at", "version"})
	if _, err := c.db.ExecContext(ctx, insert,
		engineVersion, coerce.FromEpochInt(time.Now().Unix()), current+1,
	); err != nil {
		return fmt.Errorf("failed to record schema update: %w", err)
	}
	return nil
}

// CompleteLoad marks a load batch as finished in the loads tracking table.
func (c *sqlClient) CompleteLoad(ctx context.Context, loadID string, status int64) error {
	insert := c.insertSQL(schema.LoadsTableName, []string{"inserted_at", "load_id", "status"})
	if _, err := c.db.ExecContext(ctx, insert,
		coerce.FromEpochInt(time.Now().Unix()), loadID, status,
	); err != nil {
		return fmt.Errorf("failed to record load %s: %w", loadID, err)
	}
	return nil
}

func sortedTableNames(tables map[string]schema.Table) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unionColumns(rows []map[string]any) []string {
	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// driverArg lowers coerced values into types database/sql drivers accept.
func driverArg(v any) any {
	switch t := v.(type) {
	case *big.Int:
		return t.String()
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		return t.String()
	}
	return v
}
