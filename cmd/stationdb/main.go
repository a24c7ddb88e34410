package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	exportspage "pickstation/frontend/exports"
	"pickstation/infrastructure/sqlite"
)

// stationdb prepares a station database and prints its export history.
//
//	stationdb          apply pending migrations
//	stationdb runs     apply migrations, then list the last 20 exports
func main() {
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	defaultDBPath := filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(migrationsDir))), "pickstation.db")
	dbPath := getenv("SQLITE_PATH", defaultDBPath)

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	fmt.Printf("migrations applied to %s\n", dbPath)

	if len(os.Args) > 1 && os.Args[1] == "runs" {
		runs, err := exportspage.LoadRecentRuns(ctx, db, 20)
		if err != nil {
			log.Fatalf("load export runs: %v", err)
		}
		for _, run := range runs {
			fmt.Printf("%s\t%s\t%s\t%s\t%d bytes\n",
				run.CreatedAt.Format("2006-01-02 15:04:05"), run.StationID, run.Picklist, run.FileName, run.ByteSize)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
