package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/destination"
	"github.com/tabload/tabload/internal/load"
	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/internal/store"
	"github.com/tabload/tabload/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tabload",
	Short: "Schema-driven tabular data loading toolkit",
	Long:  `Manage versioned table schemas, migrate legacy schema documents, and load typed row files into SQL destinations.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new schema with the system tables",
	RunE:  runInit,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade a schema document to a newer engine version",
	RunE:  runMigrate,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the tables and columns of a stored schema",
	RunE:  runInspect,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a JSONL row file into a destination table",
	RunE:  runLoad,
}

var (
	configPath    string
	schemaName    string
	schemaFile    string
	tableName     string
	rowFile       string
	targetVersion int
	verbose       bool
)

func init() {
	initCmd.Flags().StringVar(&configPath, "config", "tabload.yaml", "Path to the configuration file")
	initCmd.Flags().StringVar(&schemaName, "name", "", "Name of the schema to create")
	initCmd.MarkFlagRequired("name")

	migrateCmd.Flags().StringVar(&schemaFile, "file", "", "Path to the schema document to upgrade")
	migrateCmd.Flags().IntVar(&targetVersion, "to", schema.EngineVersion, "Target engine version")
	migrateCmd.MarkFlagRequired("file")

	inspectCmd.Flags().StringVar(&configPath, "config", "tabload.yaml", "Path to the configuration file")
	inspectCmd.Flags().StringVar(&schemaName, "schema", "", "Name of the schema to inspect")
	inspectCmd.MarkFlagRequired("schema")

	loadCmd.Flags().StringVar(&configPath, "config", "tabload.yaml", "Path to the configuration file")
	loadCmd.Flags().StringVar(&schemaName, "schema", "", "Name of the schema to load under")
	loadCmd.Flags().StringVar(&tableName, "table", "", "Destination table name")
	loadCmd.Flags().StringVar(&rowFile, "file", "", "Path to the JSONL row file")
	loadCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	loadCmd.MarkFlagRequired("schema")
	loadCmd.MarkFlagRequired("table")
	loadCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(loadCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	log := logger.NewLogger(verbose)
	sch := schema.NewStoredSchema(schemaName)
	path, err := store.NewStore(cfg.SchemaDir, log).Save(sch)
	if err != nil {
		return err
	}

	log.WithSchema(sch.Name).Infof("Created schema at %s", path)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("cannot read schema document: %w", err)
	}

	doc, err := store.DecodeDocument(schemaFile, data)
	if err != nil {
		return err
	}
	current, err := schema.StoredEngineVersion(doc)
	if err != nil {
		return err
	}

	doc, err = schema.Upgrade(doc, current, targetVersion)
	if err != nil {
		return err
	}
	if err := schema.ValidateStored(doc); err != nil {
		return err
	}

	var out []byte
	if strings.HasSuffix(schemaFile, ".json") {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("cannot serialize schema document: %w", err)
	}
	if err := os.WriteFile(schemaFile, out, 0o644); err != nil {
		return fmt.Errorf("cannot write schema document: %w", err)
	}

	fmt.Printf("Upgraded %s from engine version %d to %d\n", schemaFile, current, targetVersion)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	sch, err := store.NewStore(cfg.SchemaDir, logger.NewLogger(false)).Load(schemaName)
	if err != nil {
		return err
	}

	fmt.Printf("Schema %s (engine version %d)\n", sch.Name, sch.EngineVersion)
	tableNames := make([]string, 0, len(sch.Tables))
	for name := range sch.Tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	for _, name := range tableNames {
		table := sch.Tables[name]
		header := name
		if table.Parent != "" {
			header += fmt.Sprintf(" (parent: %s)", table.Parent)
		} else if table.WriteDisposition != "" {
			header += fmt.Sprintf(" (%s)", table.WriteDisposition)
		}
		fmt.Println(header)

		columnNames := make([]string, 0, len(table.Columns))
		for col := range table.Columns {
			columnNames = append(columnNames, col)
		}
		sort.Strings(columnNames)
		for _, col := range columnNames {
			column := table.Columns[col]
			nullable := "NOT NULL"
			if column.Nullable {
				nullable = "NULL"
			}
			fmt.Printf("  %-32s %-10s %s\n", col, column.DataType, nullable)
		}
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	log := logger.NewLogger(verbose)
	schemaStore := store.NewStore(cfg.SchemaDir, log)

	sch, err := schemaStore.Load(schemaName)
	if err != nil {
		return err
	}

	dest, err := destination.New(cfg, log)
	if err != nil {
		return err
	}
	defer dest.Close()

	loader := load.NewLoader(sch, dest, load.Options{
		BatchSize: cfg.BatchSize,
		Logger:    log,
	})

	loadID, err := loader.LoadFile(context.Background(), tableName, rowFile)
	if err != nil {
		return err
	}

	if loader.SchemaChanged() {
		if _, err := schemaStore.Save(sch); err != nil {
			return err
		}
	}

	log.Infof("Load %s completed", loadID)
	return nil
}
