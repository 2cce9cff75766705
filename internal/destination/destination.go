// Package destination holds the warehouse-side clients that receive
// migrated schemas and coerced rows. Each client advertises its
// capabilities so the loader can adapt file formats and identifier limits
// per destination.
package destination

import (
	"context"
	"fmt"

	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

// Capabilities describes what a destination supports.
type Capabilities struct {
	PreferredLoaderFormat     string
	SupportedLoaderFormats    []string
	MaxIdentifierLength       int
	MaxColumnIdentifierLength int
	DecimalPrecision          int
	DecimalScale              int
	WeiPrecision              int
	SupportsDDLTransactions   bool
	EscapeIdentifier          func(string) string
}

// Client executes schema updates and loads against one destination. All
// blocking operations take a context.
type Client interface {
	Capabilities() Capabilities
	InitializeStorage(ctx context.Context) error
	UpdateSchema(ctx context.Context, s *schema.StoredSchema) error
	LoadRows(ctx context.Context, table string, rows []map[string]any) error
	RecordSchemaUpdate(ctx context.Context, engineVersion int) error
	CompleteLoad(ctx context.Context, loadID string, status int64) error
	Close() error
}

// New creates a client for the configured destination driver.
func New(cfg *config.Config, log *logger.Logger) (Client, error) {
	switch cfg.Destination.Driver {
	case "postgres":
		return newPostgresClient(cfg.Destination.DSN, log)
	case "sqlite":
		return newSQLiteClient(cfg.Destination.Path, log)
	default:
		return nil, fmt.Errorf("unsupported destination driver: %s", cfg.Destination.Driver)
	}
}
