package storage

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	Schema      []string
	isUnique    func(error) bool
}

const (
	sectionsTable  = "document_sections"
	summariesTable = "documents_summaries"
)

// SQLite is the embedded file-backed engine.
var SQLite = Dialect{
	Name:        "sqlite3",
	Placeholder: sq.Question,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS documents_summaries (
			document_id TEXT PRIMARY KEY,
			title TEXT,
			summary TEXT,
			date_published TEXT,
			sent INTEGER NOT NULL DEFAULT 0,
			summary_type TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS document_sections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			section_date TEXT NOT NULL,
			section_content TEXT,
			section_summary TEXT,
			processed_at TIMESTAMP NOT NULL,
			sent INTEGER NOT NULL DEFAULT 0,
			UNIQUE (document_id, section_date)
		)`,
	},
	isUnique: func(err error) bool {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		}
		return false
	},
}

// Postgres is the managed relational engine.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: sq.Dollar,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS documents_summaries (
			document_id TEXT PRIMARY KEY,
			title TEXT,
			summary TEXT,
			date_published TEXT,
			sent SMALLINT NOT NULL DEFAULT 0,
			summary_type TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS document_sections (
			id BIGSERIAL PRIMARY KEY,
			document_id TEXT NOT NULL,
			section_date TEXT NOT NULL,
			section_content TEXT,
			section_summary TEXT,
			processed_at TIMESTAMPTZ NOT NULL,
			sent SMALLINT NOT NULL DEFAULT 0,
			UNIQUE (document_id, section_date)
		)`,
	},
	isUnique: func(err error) bool {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return pqErr.Code == "23505"
		}
		return false
	},
}

// DialectFor resolves a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported ledger driver %q", driver)
}
