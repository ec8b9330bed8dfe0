package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// SQLLedger persists sections and summaries through database/sql.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.Ledger = (*SQLLedger)(nil)

// NewSQLLedger wires an open sql.DB with the dialect it speaks.
func NewSQLLedger(db *sql.DB, dialect Dialect) *SQLLedger {
	return &SQLLedger{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to the configured engine and returns a ledger over it.
func Open(driver, dsn string) (*SQLLedger, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.Name == SQLite.Name {
		// single writer
		db.SetMaxOpenConns(1)
	}

	return NewSQLLedger(db, dialect), nil
}

// Close releases the underlying connection pool.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}

// Init creates the ledger tables when they are missing.
func (l *SQLLedger) Init(ctx context.Context) error {
	for _, stmt := range l.dialect.Schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Reset drops both tables and recreates them empty.
func (l *SQLLedger) Reset(ctx context.Context) error {
	for _, table := range []string{sectionsTable, summariesTable} {
		if _, err := l.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return l.Init(ctx)
}

// LatestSectionDate returns the newest stored section date for a document.
func (l *SQLLedger) LatestSectionDate(ctx context.Context, documentID string) (time.Time, bool, error) {
	query, args, err := l.builder.
		Select("MAX(section_date)").
		From(sectionsTable).
		Where(sq.Eq{"document_id": documentID}).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build latest date query: %w", err)
	}

	var latest sql.NullString
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("query latest date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}

	date, err := time.Parse(domain.DateLayout, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stored section date %q: %w", latest.String, err)
	}
	return date, true, nil
}

// SaveSection inserts an unsent section. It never overwrites.
func (l *SQLLedger) SaveSection(ctx context.Context, record domain.SectionRecord) error {
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = l.now()
	}

	query, args, err := l.builder.
		Insert(sectionsTable).
		Columns("document_id", "section_date", "section_content", "section_summary", "processed_at", "sent").
		Values(record.DocumentID, record.SectionDate.Format(domain.DateLayout), record.Content, record.Summary, processedAt, 0).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert section: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		if l.dialect.isUnique(err) {
			return fmt.Errorf("%w: %s@%s", domain.ErrDuplicateSection, record.DocumentID, record.SectionDate.Format(domain.DateLayout))
		}
		return fmt.Errorf("insert section: %w", err)
	}
	return nil
}

// UnsentSections lists unsent sections newest first.
func (l *SQLLedger) UnsentSections(ctx context.Context, documentID string) ([]domain.SectionSummary, error) {
	query, args, err := l.builder.
		Select("section_date", "section_summary").
		From(sectionsTable).
		Where(sq.Eq{"document_id": documentID, "sent": 0}).
		OrderBy("section_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unsent query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unsent: %w", err)
	}

	var result []domain.SectionSummary
	for rows.Next() {
		var (
			rawDate string
			summary sql.NullString
		)
		if err := rows.Scan(&rawDate, &summary); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan unsent: %w", err)
		}
		date, err := time.Parse(domain.DateLayout, rawDate)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("stored section date %q: %w", rawDate, err)
		}
		result = append(result, domain.SectionSummary{Date: date, Summary: summary.String})
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// MarkSent flips every unsent section of the document to sent.
func (l *SQLLedger) MarkSent(ctx context.Context, documentID string) error {
	query, args, err := l.builder.
		Update(sectionsTable).
		Set("sent", 1).
		Where(sq.Eq{"document_id": documentID, "sent": 0}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark sent: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// DocumentSummary loads the whole-document summary, if any.
func (l *SQLLedger) DocumentSummary(ctx context.Context, documentID string) (domain.DocumentSummary, bool, error) {
	query, args, err := l.builder.
		Select("document_id", "title", "summary", "date_published", "sent", "summary_type").
		From(summariesTable).
		Where(sq.Eq{"document_id": documentID}).
		ToSql()
	if err != nil {
		return domain.DocumentSummary{}, false, fmt.Errorf("build summary query: %w", err)
	}

	var (
		summary                             domain.DocumentSummary
		title, text, published, summaryType sql.NullString
		sent                                int
	)
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&summary.DocumentID, &title, &text, &published, &sent, &summaryType)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DocumentSummary{}, false, nil
	}
	if err != nil {
		return domain.DocumentSummary{}, false, fmt.Errorf("query summary: %w", err)
	}

	summary.Title = title.String
	summary.Summary = text.String
	summary.DatePublished = published.String
	summary.SummaryType = domain.SummaryType(summaryType.String)
	summary.Sent = sent == 1
	return summary, true, nil
}

// SaveDocumentSummary inserts an unsent whole-document summary.
func (l *SQLLedger) SaveDocumentSummary(ctx context.Context, summary domain.DocumentSummary) error {
	query, args, err := l.builder.
		Insert(summariesTable).
		Columns("document_id", "title", "summary", "date_published", "sent", "summary_type").
		Values(summary.DocumentID, summary.Title, summary.Summary, summary.DatePublished, 0, string(summary.SummaryType)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert summary: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		if l.dialect.isUnique(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSummary, summary.DocumentID)
		}
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// MarkDocumentSent flags the whole-document summary as delivered.
func (l *SQLLedger) MarkDocumentSent(ctx context.Context, documentID string) error {
	query, args, err := l.builder.
		Update(summariesTable).
		Set("sent", 1).
		Where(sq.Eq{"document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark document sent: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark document sent: %w", err)
	}
	return nil
}
