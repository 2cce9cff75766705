package destination

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

// newSQLiteClient opens a local sqlite destination. Decimal and wei values
// are stored as text so no precision is lost to sqlite's numeric affinity.
func newSQLiteClient(path string, log *logger.Logger) (Client, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &sqlClient{
		db:  db,
		log: log,
		dialect: dialect{
			name:        "sqlite",
			placeholder: func(int) string { return "?" },
			quote:       quoteDouble,
			typeFor: map[schema.DataType]string{
				schema.TypeText:      "TEXT",
				schema.TypeBigInt:    "INTEGER",
				schema.TypeDouble:    "REAL",
				schema.TypeBool:      "BOOLEAN",
				schema.TypeBinary:    "BLOB",
				schema.TypeComplex:   "TEXT",
				schema.TypeDecimal:   "TEXT",
				schema.TypeTimestamp: "TEXT",
				schema.TypeWei:       "TEXT",
			},
		},
		caps: Capabilities{
			PreferredLoaderFormat:     "jsonl",
			SupportedLoaderFormats:    []string{"jsonl"},
			MaxIdentifierLength:       128,
			MaxColumnIdentifierLength: 128,
			DecimalPrecision:          38,
			DecimalScale:              9,
			WeiPrecision:              38,
			SupportsDDLTransactions:   true,
			EscapeIdentifier:          quoteDouble,
		},
	}, nil
}
