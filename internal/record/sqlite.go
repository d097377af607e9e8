package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS applications (
    id                  TEXT PRIMARY KEY,
    account_id          TEXT NOT NULL REFERENCES accounts(id),
    account_name        TEXT NOT NULL DEFAULT '',
    decision            TEXT NOT NULL DEFAULT '',
    quoted_amount       REAL,
    reduced_amount      REAL,
    conflict_alert      INTEGER NOT NULL DEFAULT 0,
    conflict_dismissed  INTEGER NOT NULL DEFAULT 0,
    conflict_message    TEXT NOT NULL DEFAULT '',
    conflict_score      TEXT NOT NULL DEFAULT '',
    conflict_signature  TEXT NOT NULL DEFAULT '',
    consent_at          TIMESTAMP,
    submitted_at        TIMESTAMP,
    step                TEXT NOT NULL DEFAULT 'intake',
    created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Account is a client account row.
type Account struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// SQLiteStore implements Store using a local SQLite database in WAL mode.
// It also carries the account-level operations the intake workflow needs
// beyond the narrow Store contract.
type SQLiteStore struct {
	db  *sql.DB
	hub *Hub
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode and busy timeout, and creates the schema tables if they do not exist.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("record: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer; using
	// one connection avoids SQLITE_BUSY contention between pooled connections
	// that each need their own PRAGMA setup. WAL mode still benefits external
	// readers and provides crash-safe writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create schema: %w", err)
	}

	return &SQLiteStore{db: db, hub: NewHub()}, nil
}

// Hub returns the change-hint hub backing NotifyChanged. Subscriptions attach
// to it to receive refresh hints for a record.
func (s *SQLiteStore) Hub() *Hub { return s.hub }

// CreateAccount inserts a new client account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a Account) error {
	const q = `INSERT INTO accounts (id, name, email, phone) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, a.ID, a.Name, a.Email, a.Phone); err != nil {
		return fmt.Errorf("record: create account %q: %w", a.ID, err)
	}
	return nil
}

// Accounts returns every account, oldest first.
func (s *SQLiteStore) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, phone, created_at FROM accounts ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("record: query accounts: %w", err)
	}
	defer rows.Close()

	var result []Account
	for rows.Next() {
		var a Account
		var ts string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &ts); err != nil {
			return nil, fmt.Errorf("record: scan account: %w", err)
		}
		createdAt, parseErr := parseTimestamp(ts)
		if parseErr != nil {
			return nil, fmt.Errorf("record: parse account timestamp: %w", parseErr)
		}
		a.CreatedAt = createdAt
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record: iterate accounts: %w", err)
	}
	return result, nil
}

// AccountNames returns the names of all existing accounts. Used by the
// conflict-of-interest scan.
func (s *SQLiteStore) AccountNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM accounts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("record: query account names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("record: scan account name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record: iterate account names: %w", err)
	}
	return names, nil
}

// CreateApplication inserts a new intake application for an account.
func (s *SQLiteStore) CreateApplication(ctx context.Context, id, accountID, accountName string) error {
	const q = `INSERT INTO applications (id, account_id, account_name) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, id, accountID, accountName); err != nil {
		return fmt.Errorf("record: create application %q: %w", id, err)
	}
	return nil
}

// Applications returns the ids of all applications, oldest first.
func (s *SQLiteStore) Applications(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM applications ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("record: query applications: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("record: scan application id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record: iterate applications: %w", err)
	}
	return ids, nil
}

// Fetch reads the current values of the requested fields for an application.
// The full row is read regardless of the field set; the set restricts which
// fields are populated in the returned Snapshot so callers see exactly what
// they asked for.
func (s *SQLiteStore) Fetch(ctx context.Context, id string, fields []string) (Snapshot, error) {
	const q = `SELECT id, decision, quoted_amount, reduced_amount, account_name,
		conflict_alert, conflict_dismissed, conflict_message, conflict_score,
		conflict_signature, consent_at, submitted_at, step
		FROM applications WHERE id = ?`

	var (
		full     Snapshot
		quoted   sql.NullFloat64
		reduced  sql.NullFloat64
		consent  sql.NullString
		submitAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&full.ID, &full.Decision, &quoted, &reduced, &full.AccountName,
		&full.ConflictAlert, &full.ConflictDismissed, &full.ConflictMessage,
		&full.ConflictScore, &full.ConflictSignature, &consent, &submitAt, &full.Step,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("record: fetch %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("record: fetch %q: %w", id, err)
	}

	if quoted.Valid {
		full.QuotedAmount = &quoted.Float64
	}
	if reduced.Valid {
		full.ReducedAmount = &reduced.Float64
	}
	if full.ConsentAt, err = parseOptionalTimestamp(consent); err != nil {
		return Snapshot{}, fmt.Errorf("record: fetch %q: consent_at: %w", id, err)
	}
	if full.SubmittedAt, err = parseOptionalTimestamp(submitAt); err != nil {
		return Snapshot{}, fmt.Errorf("record: fetch %q: submitted_at: %w", id, err)
	}

	return project(full, fields), nil
}

// project copies only the requested fields from full into a new Snapshot.
// Unknown field names are ignored.
func project(full Snapshot, fields []string) Snapshot {
	snap := Snapshot{ID: full.ID}
	for _, f := range fields {
		switch f {
		case FieldDecision:
			snap.Decision = full.Decision
		case FieldQuotedAmount:
			snap.QuotedAmount = full.QuotedAmount
		case FieldReducedAmount:
			snap.ReducedAmount = full.ReducedAmount
		case FieldAccountName:
			snap.AccountName = full.AccountName
		case FieldConflictAlert:
			snap.ConflictAlert = full.ConflictAlert
		case FieldConflictDismissed:
			snap.ConflictDismissed = full.ConflictDismissed
		case FieldConflictMessage:
			snap.ConflictMessage = full.ConflictMessage
		case FieldConflictScore:
			snap.ConflictScore = full.ConflictScore
		case FieldConflictSignature:
			snap.ConflictSignature = full.ConflictSignature
		case FieldConsentAt:
			snap.ConsentAt = full.ConsentAt
		case FieldSubmittedAt:
			snap.SubmittedAt = full.SubmittedAt
		case FieldStep:
			snap.Step = full.Step
		}
	}
	return snap
}

// columnFor maps a field name to its applications column, or "" if the field
// is not writable.
func columnFor(field string) string {
	switch field {
	case FieldDecision, FieldQuotedAmount, FieldReducedAmount, FieldAccountName,
		FieldConflictAlert, FieldConflictDismissed, FieldConflictMessage,
		FieldConflictScore, FieldConflictSignature, FieldConsentAt,
		FieldSubmittedAt, FieldStep:
		return field
	default:
		return ""
	}
}

// Update writes field values for an application. Unknown field names are
// rejected so that a typo cannot silently drop a write.
func (s *SQLiteStore) Update(ctx context.Context, id string, values Values) error {
	if len(values) == 0 {
		return nil
	}

	var (
		sets []string
		args []any
	)
	for field, v := range values {
		col := columnFor(field)
		if col == "" {
			return fmt.Errorf("record: update %q: unknown field %q", id, field)
		}
		sets = append(sets, col+" = ?")
		args = append(args, normalizeValue(v))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	q := "UPDATE applications SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("record: update %q: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record: update %q: rows affected: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("record: update %q: %w", id, ErrNotFound)
	}
	return nil
}

// normalizeValue converts Update value types to driver-friendly forms.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case *float64:
		if t == nil {
			return nil
		}
		return *t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// NotifyChanged broadcasts a refresh hint for the record to any attached
// subscriptions. Best-effort: hints to slow consumers are dropped.
func (s *SQLiteStore) NotifyChanged(id string) {
	s.hub.Notify(id)
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339
// (with "T" separator and "Z" suffix), while canonical SQLite returns
// the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// parseOptionalTimestamp parses a nullable timestamp column into a *time.Time.
func parseOptionalTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
