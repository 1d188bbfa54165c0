package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/pkg/config"
	"github.com/openchecklist/checklist-api/pkg/database"
)

func main() {
	var (
		dir           string
		convertLegacy bool
	)
	flag.StringVar(&dir, "dir", "migrations", "Directory holding .sql migration files")
	flag.BoolVar(&convertLegacy, "convert-legacy", false, "Convert prefix-encoded content strings into the payload columns")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	applied, err := applyMigrations(db, dir)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Printf("Applied %d migration(s)\n", applied)

	if convertLegacy {
		converted, skipped, err := convertLegacyContent(db)
		if err != nil {
			log.Fatalf("legacy conversion failed: %v", err)
		}
		fmt.Printf("Converted %d row(s), skipped %d\n", converted, skipped)
	}
}

func applyMigrations(db *sqlx.DB, dir string) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		var exists bool
		if err := db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name); err != nil {
			return applied, fmt.Errorf("check %s: %w", name, err)
		}
		if exists {
			continue
		}

		sqlText, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := db.Beginx()
		if err != nil {
			return applied, err
		}
		if _, err := tx.Exec(string(sqlText)); err != nil {
			tx.Rollback() //nolint:errcheck
			return applied, fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			tx.Rollback() //nolint:errcheck
			return applied, fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, err
		}
		fmt.Printf("applied %s\n", name)
		applied++
	}
	return applied, nil
}

// convertLegacyContent rewrites rows whose historical single content column
// still carries a prefix-encoded string ("PDF_BASE64:...", "ZIP_BASE64:...",
// "PDF File: ...") into the discriminated payload columns, then clears the
// legacy column. Rows whose payload columns are already populated are left
// alone.
func convertLegacyContent(db *sqlx.DB) (converted, skipped int, err error) {
	var hasColumn bool
	err = db.Get(&hasColumn, `SELECT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'checklists' AND column_name = 'content'
	)`)
	if err != nil {
		return 0, 0, fmt.Errorf("inspect schema: %w", err)
	}
	if !hasColumn {
		fmt.Println("no legacy content column, nothing to convert")
		return 0, 0, nil
	}

	type legacyRow struct {
		ID      int64  `db:"id"`
		Content string `db:"content"`
	}
	var rows []legacyRow
	err = db.Select(&rows, `SELECT id, content FROM checklists
		WHERE content IS NOT NULL AND content <> '' AND content_kind = $1
		ORDER BY id`, models.PayloadEmpty)
	if err != nil {
		return 0, 0, fmt.Errorf("load legacy rows: %w", err)
	}

	for _, row := range rows {
		payload, perr := models.ParseLegacyContent(row.Content)
		if perr != nil {
			fmt.Printf("skipping checklist %d: %v\n", row.ID, perr)
			skipped++
			continue
		}
		_, err = db.Exec(`UPDATE checklists
			SET content_kind = $1, content_text = $2, file_kind = $3, file_name = $4, file_data = $5,
			    content = NULL, updated_at = NOW()
			WHERE id = $6`,
			payload.Kind, payload.Text, payload.FileKind, payload.FileName, payload.FileData, row.ID)
		if err != nil {
			return converted, skipped, fmt.Errorf("update checklist %d: %w", row.ID, err)
		}
		converted++
	}
	return converted, skipped, nil
}
