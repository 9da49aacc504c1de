package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"healthboard-sync/internal/config"
	"healthboard-sync/internal/database"
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "init":
		handleInit(cfg)
	case "status":
		handleStatus(cfg)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`healthboard-sync CLI - Database Management

Usage:
  cli <command>

Commands:
  init         Create the database and apply the schema
  status       Show the sync cursor and per-table row counts
  help         Show this help message

Examples:
  cli init
  cli status

Environment Variables:
  DATABASE_PATH          - SQLite database path (default: ./data.db)
  HOST                   - Server host (default: localhost)
  PORT                   - Server port (default: 4180)`)
}

func handleInit(cfg *config.Config) {
	fmt.Printf("Initializing database at %s...\n", cfg.DatabasePath)

	// Open applies the schema, so there is nothing else to run
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	color.Green("✓ Database ready")
}

func handleStatus(cfg *config.Config) {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	cursor, err := db.GetSyncCursor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read sync cursor: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database: %s\n", cfg.DatabasePath)
	if cursor == "" {
		color.Yellow("Sync cursor: (no sync recorded yet)")
	} else {
		fmt.Printf("Sync cursor: %s\n", cursor)
	}
	fmt.Println()

	fmt.Printf("%-26s %10s\n", "Table", "Rows")
	for _, table := range database.Tables {
		count, err := db.TableCount(table)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to count %s: %v\n", table, err)
			os.Exit(1)
		}
		fmt.Printf("%-26s %10d\n", table, count)
	}
}
