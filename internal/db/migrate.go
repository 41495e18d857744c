package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"carbon-tracker-go/pkg/logger"
	"gorm.io/gorm"
)

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	filename TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate applies every *.sql file in migrations that schema_migrations does
// not list yet, in lexical order. Each file runs in its own transaction
// together with its bookkeeping row. It returns the number applied.
func Migrate(ctx context.Context, db *gorm.DB, migrations fs.FS, log logger.Logger) (int, error) {
	files, err := migrationFiles(migrations)
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}

	conn := db.WithContext(ctx)
	if err := conn.Exec(schemaMigrationsDDL).Error; err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var done []string
	if err := conn.Raw("SELECT filename FROM schema_migrations").Scan(&done).Error; err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(done))
	for _, name := range done {
		applied[name] = struct{}{}
	}

	count := 0
	for _, name := range files {
		if _, ok := applied[name]; ok {
			continue
		}

		contents, err := fs.ReadFile(migrations, name)
		if err != nil {
			return count, err
		}
		statement := strings.TrimSpace(string(contents))
		if statement == "" {
			log.Warn("db.migrate: skipping empty file", "file", name)
			continue
		}

		err = conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(statement).Error; err != nil {
				return err
			}
			return tx.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
		})
		if err != nil {
			return count, fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("db.migrate: applied", "file", name)
		count++
	}

	log.Info("db.migrate: done", "applied", count, "known", len(files))
	return count, nil
}

func migrationFiles(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
