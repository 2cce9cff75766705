package destination

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

func newPostgresClient(dsn string, log *logger.Logger) (Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	return &sqlClient{
		db:  db,
		log: log,
		dialect: dialect{
			name:        "postgres",
			placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
			quote:       quoteDouble,
			typeFor: map[schema.DataType]string{
				schema.TypeText:      "text",
				schema.TypeBigInt:    "bigint",
				schema.TypeDouble:    "double precision",
				schema.TypeBool:      "boolean",
				schema.TypeBinary:    "bytea",
				schema.TypeComplex:   "jsonb",
				schema.TypeDecimal:   "numeric(38,9)",
				schema.TypeTimestamp: "timestamp with time zone",
				schema.TypeWei:       "numeric(38,0)",
			},
		},
		caps: Capabilities{
			PreferredLoaderFormat:     "jsonl",
			SupportedLoaderFormats:    []string{"jsonl"},
			MaxIdentifierLength:       63,
			MaxColumnIdentifierLength: 63,
			DecimalPrecision:          38,
			DecimalScale:              9,
			WeiPrecision:              38,
			SupportsDDLTransactions:   true,
			EscapeIdentifier:          quoteDouble,
		},
	}, nil
}

func quoteDouble(ident string) string {
	return `"` + ident + `"`
}
