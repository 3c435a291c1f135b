package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Abhijeetjrock/db-analyzer1/internal/database"
)

var (
	showTables    bool
	showLast      int
	describeTable string
	withRowCount  bool
)

var checkCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Check connectivity to the configured catalog database",
	Long: `Open the catalog connection from the config file, ping it and optionally
list the tables of the current schema or describe one of them. The
optimizer never needs this connection.`,
	RunE: checkDatabase,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&showTables, "tables", false, "List tables in the current schema")
	checkCmd.Flags().IntVar(&showLast, "last", 20, "Number of tables to show")
	checkCmd.Flags().StringVar(&describeTable, "describe", "", "Describe columns, keys and indexes of a table")
	checkCmd.Flags().BoolVar(&withRowCount, "rows", false, "Count rows of the described table (full scan)")
}

func checkDatabase(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	cat := rt.cfg.Catalog
	fmt.Printf("🔍 Checking %s catalog...\n", cat.Dialect)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	db, err := database.NewConnection(ctx, cat)
	if err != nil {
		if errors.Is(err, database.ErrNoCatalog) {
			fmt.Println("📭 No catalog configured")
			fmt.Println("💡 Set catalog.dialect and catalog.dsn (or CROSSDB_CATALOG_DSN) to enable it")
			return nil
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fmt.Printf("✅ Connected in %v\n", time.Since(start).Round(time.Millisecond))

	if describeTable != "" {
		info, err := db.DescribeTable(ctx, describeTable, withRowCount)
		if err != nil {
			return err
		}
		printTableInfo(info)
	}

	if !showTables {
		return nil
	}

	tables, err := db.Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("📭 No tables in the current schema")
		return nil
	}

	fmt.Printf("\n📋 Found %d table(s):\n", len(tables))
	fmt.Println(strings.Repeat("─", 80))
	for i, name := range tables {
		if showLast > 0 && i >= showLast {
			fmt.Printf("   ... and %d more\n", len(tables)-showLast)
			break
		}
		fmt.Printf("   📑 %s\n", name)
	}
	return nil
}

func printTableInfo(info *database.TableInfo) {
	fmt.Printf("\n📑 %s (%d columns)\n", info.Name, len(info.Columns))
	fmt.Println(strings.Repeat("─", 80))
	for _, col := range info.Columns {
		null := "NOT NULL"
		if col.Nullable {
			null = "NULL"
		}
		line := fmt.Sprintf("   %-30s %-20s %s", col.Name, col.Type, null)
		if col.Default != "" {
			line += " DEFAULT " + col.Default
		}
		fmt.Println(line)
	}

	if len(info.PrimaryKey) > 0 {
		fmt.Printf("\n🔑 Primary key: %s\n", strings.Join(info.PrimaryKey, ", "))
	}
	for _, fk := range info.ForeignKeys {
		fmt.Printf("🔗 %s: %s -> %s.%s\n", fk.Name, fk.Column, fk.RefTable, fk.RefColumn)
	}
	for _, idx := range info.Indexes {
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		fmt.Printf("📇 %s %s (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
	}
	if info.RowCount != nil {
		fmt.Printf("📊 Rows: %d\n", *info.RowCount)
	}
}
