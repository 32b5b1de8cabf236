package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/ethanocurtis/MultiNotify/internal/model"
	"github.com/ethanocurtis/MultiNotify/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// DefaultSeenCap bounds how many seen item IDs are kept per
// (scope, kind) partition. Oldest entries are evicted first; dedup is
// a best-effort UX guarantee, not a correctness-critical one.
const DefaultSeenCap = 5000

const globalSettingsKey = "global"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db      *sql.DB
	seenCap int
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, seenCap: DefaultSeenCap}, nil
}

// SetSeenCap overrides the seen-ledger eviction bound.
func (s *SQLite) SetSeenCap(n int) {
	if n > 0 {
		s.seenCap = n
	}
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetGlobal returns the global configuration document, or defaults if
// none has been saved yet.
func (s *SQLite) GetGlobal(ctx context.Context) (*model.GlobalConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, globalSettingsKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultGlobal(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query global config: %w", err)
	}

	var g model.GlobalConfig
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode global config: %w", err)
	}
	return &g, nil
}

// SaveGlobal persists the global configuration document.
func (s *SQLite) SaveGlobal(ctx context.Context, g *model.GlobalConfig) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode global config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		globalSettingsKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save global config: %w", err)
	}
	return nil
}

// GetRecipient returns a recipient's profile, or defaults if the
// recipient has never saved a preference.
func (s *SQLite) GetRecipient(ctx context.Context, id int64) (*model.RecipientProfile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM recipients WHERE id = ?`, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultProfile(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query recipient %d: %w", id, err)
	}

	var p model.RecipientProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode recipient %d: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

// SaveRecipient persists a recipient's profile document.
func (s *SQLite) SaveRecipient(ctx context.Context, p *model.RecipientProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode recipient %d: %w", p.ID, err)
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipients (id, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		p.ID, string(raw), now,
	)
	if err != nil {
		return fmt.Errorf("save recipient %d: %w", p.ID, err)
	}
	return nil
}

// ListRecipients returns all recipients that have saved preferences.
func (s *SQLite) ListRecipients(ctx context.Context) ([]model.RecipientProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, profile FROM recipients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.RecipientProfile
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		var p model.RecipientProfile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode recipient %d: %w", id, err)
		}
		p.ID = id
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// IsSeen checks whether an item has already been processed for a scope.
func (s *SQLite) IsSeen(ctx context.Context, scope string, kind model.SourceKind, itemID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE scope = ? AND kind = ? AND item_id = ?`,
		scope, string(kind), itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records that an item has been processed for a scope, then
// evicts the oldest entries beyond the ledger cap.
func (s *SQLite) MarkSeen(ctx context.Context, scope string, kind model.SourceKind, itemID string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (scope, kind, item_id, seen_at) VALUES (?, ?, ?, ?)`,
		scope, string(kind), itemID, now,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM seen_items
		 WHERE scope = ? AND kind = ?
		   AND id NOT IN (
		     SELECT id FROM seen_items WHERE scope = ? AND kind = ?
		     ORDER BY id DESC LIMIT ?
		   )`,
		scope, string(kind), scope, string(kind), s.seenCap,
	)
	if err != nil {
		return fmt.Errorf("evict seen: %w", err)
	}
	return nil
}

// EnqueueDigest appends an entry to a recipient's digest queue.
func (s *SQLite) EnqueueDigest(ctx context.Context, e *model.DigestEntry) error {
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_queue (recipient_id, title, url, origin, kind, enqueued_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.RecipientID, e.Title, e.URL, e.Origin, string(e.Kind), e.EnqueuedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("enqueue digest: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// DrainDigest atomically empties and returns a recipient's digest
// queue in enqueue order.
func (s *SQLite) DrainDigest(ctx context.Context, recipientID int64) ([]model.DigestEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, recipient_id, title, url, origin, kind, enqueued_at
		 FROM digest_queue WHERE recipient_id = ? ORDER BY id`, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query digest queue: %w", err)
	}

	var entries []model.DigestEntry
	for rows.Next() {
		var e model.DigestEntry
		var kindStr, enqueuedStr string
		if err := rows.Scan(&e.ID, &e.RecipientID, &e.Title, &e.URL, &e.Origin, &kindStr, &enqueuedStr); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan digest entry: %w", err)
		}
		e.Kind = model.SourceKind(kindStr)
		e.EnqueuedAt, _ = time.Parse(timeLayout, enqueuedStr)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate digest queue: %w", err)
	}
	_ = rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM digest_queue WHERE recipient_id = ?`, recipientID); err != nil {
		return nil, fmt.Errorf("clear digest queue: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drain: %w", err)
	}
	return entries, nil
}

// PendingDigest returns how many entries are queued for a recipient.
func (s *SQLite) PendingDigest(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM digest_queue WHERE recipient_id = ?`, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count digest queue: %w", err)
	}
	return count, nil
}

// GetDigestMeta returns a recipient's cadence watermarks, zero-valued
// if none have been recorded.
func (s *SQLite) GetDigestMeta(ctx context.Context, recipientID int64) (*model.DigestMeta, error) {
	m := &model.DigestMeta{RecipientID: recipientID}
	err := s.db.QueryRowContext(ctx,
		`SELECT last_daily_date, last_weekly_iso FROM digest_meta WHERE recipient_id = ?`,
		recipientID,
	).Scan(&m.LastDailyDate, &m.LastWeeklyISO)
	if errors.Is(err, sql.ErrNoRows) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query digest meta: %w", err)
	}
	return m, nil
}

// SaveDigestMeta persists a recipient's cadence watermarks.
func (s *SQLite) SaveDigestMeta(ctx context.Context, m *model.DigestMeta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_meta (recipient_id, last_daily_date, last_weekly_iso) VALUES (?, ?, ?)
		 ON CONFLICT (recipient_id) DO UPDATE SET
		   last_daily_date = excluded.last_daily_date,
		   last_weekly_iso = excluded.last_weekly_iso`,
		m.RecipientID, m.LastDailyDate, m.LastWeeklyISO,
	)
	if err != nil {
		return fmt.Errorf("save digest meta: %w", err)
	}
	return nil
}
