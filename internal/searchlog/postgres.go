package searchlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetlookup/internal/sheet"
)

// DBTX is the subset of pgx used by PostgresSink.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

const createSearchLogSQL = `
CREATE TABLE IF NOT EXISTS search_log (
	id            UUID PRIMARY KEY,
	session_id    TEXT NOT NULL,
	search_key    TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	display_name  TEXT,
	ip_address    TEXT,
	user_agent    TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	delivered     BOOLEAN NOT NULL DEFAULT FALSE,
	delivered_via TEXT,
	attempts      INTEGER NOT NULL DEFAULT 0,
	last_error    TEXT
);
CREATE INDEX IF NOT EXISTS search_log_created_at_idx ON search_log (created_at);
CREATE INDEX IF NOT EXISTS search_log_pending_idx ON search_log (created_at) WHERE NOT delivered;
`

const upsertSearchLogSQL = `
INSERT INTO search_log (
	id, session_id, search_key, outcome, display_name, ip_address, user_agent,
	created_at, delivered, delivered_via, attempts, last_error
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	delivered     = EXCLUDED.delivered,
	delivered_via = EXCLUDED.delivered_via,
	attempts      = EXCLUDED.attempts,
	last_error    = EXCLUDED.last_error`

const updateDeliverySQL = `
UPDATE search_log SET
	delivered     = $2,
	delivered_via = $3,
	attempts      = $4,
	last_error    = $5
WHERE id = $1`

const selectSearchLogColumns = `
	id::text, session_id, search_key, outcome, display_name, ip_address,
	user_agent, created_at, delivered, delivered_via, attempts, last_error`

// PostgresSink stores entries in the search_log table.
type PostgresSink struct {
	db DBTX
}

// NewPostgresSink creates the search_log table if needed.
func NewPostgresSink(ctx context.Context, db DBTX) (*PostgresSink, error) {
	if _, err := db.Exec(ctx, createSearchLogSQL); err != nil {
		return nil, fmt.Errorf("create search_log table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (p *PostgresSink) Save(ctx context.Context, e Entry) error {
	_, err := p.db.Exec(ctx, upsertSearchLogSQL,
		e.ID,
		string(e.SessionID),
		e.SearchKey,
		string(e.Outcome),
		toPgText(e.DisplayName),
		toPgText(e.IPAddress),
		toPgText(e.UserAgent),
		e.CreatedAt,
		e.Delivered,
		toPgText(e.DeliveredVia),
		e.Attempts,
		toPgText(e.LastError),
	)
	if err != nil {
		return fmt.Errorf("save search log entry %s: %w", e.ID, err)
	}
	return nil
}

func (p *PostgresSink) Update(ctx context.Context, e Entry) (bool, error) {
	tag, err := p.db.Exec(ctx, updateDeliverySQL,
		e.ID,
		e.Delivered,
		toPgText(e.DeliveredVia),
		e.Attempts,
		toPgText(e.LastError),
	)
	if err != nil {
		return false, fmt.Errorf("update search log entry %s: %w", e.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PostgresSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return p.query(ctx,
		"SELECT"+selectSearchLogColumns+" FROM search_log ORDER BY created_at DESC LIMIT $1", limit)
}

func (p *PostgresSink) Pending(ctx context.Context, limit int) ([]Entry, error) {
	return p.query(ctx,
		"SELECT"+selectSearchLogColumns+" FROM search_log WHERE NOT delivered ORDER BY created_at ASC LIMIT $1", limit)
}

func (p *PostgresSink) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, "DELETE FROM search_log WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune search log: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresSink) query(ctx context.Context, sql string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := p.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query search log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan search log: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		e                                          Entry
		session, outcome                           string
		displayName, ip, ua, deliveredVia, lastErr pgtype.Text
		attempts                                   int32
	)
	err := row.Scan(
		&e.ID, &session, &e.SearchKey, &outcome, &displayName, &ip,
		&ua, &e.CreatedAt, &e.Delivered, &deliveredVia, &attempts, &lastErr,
	)
	if err != nil {
		return Entry{}, err
	}

	e.SessionID = Session(session)
	e.Outcome = sheet.OutcomeType(outcome)
	e.DisplayName = displayName.String
	e.IPAddress = ip.String
	e.UserAgent = ua.String
	e.DeliveredVia = deliveredVia.String
	e.Attempts = int(attempts)
	e.LastError = lastErr.String
	return e, nil
}

func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
