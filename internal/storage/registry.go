package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// GameRecord is one registry row: a match seen from one player's
// perspective, with its scrape and parse lifecycle timestamps.
type GameRecord struct {
	TableID     string     `json:"table_id"`
	Perspective string     `json:"perspective"`
	Players     []string   `json:"players,omitempty"`
	Version     string     `json:"version,omitempty"`
	Arena       bool       `json:"arena"`
	ScrapedAt   *time.Time `json:"scraped_at,omitempty"`
	ParsedAt    *time.Time `json:"parsed_at,omitempty"`
}

// Registry tracks which matches have been fetched and which have been
// parsed, keyed by table id plus perspective. It answers the "already
// done" questions the fetcher and worker ask before spending work.
type Registry struct {
	db *sql.DB
}

const registrySchema = `
CREATE TABLE IF NOT EXISTS games (
	table_id    TEXT NOT NULL,
	perspective TEXT NOT NULL,
	players     TEXT NOT NULL DEFAULT '',
	version     TEXT NOT NULL DEFAULT '',
	arena       INTEGER NOT NULL DEFAULT 0,
	scraped_at  TEXT,
	parsed_at   TEXT,
	PRIMARY KEY (table_id, perspective)
);
CREATE INDEX IF NOT EXISTS idx_games_parsed ON games (parsed_at);
`

// OpenRegistry opens (creating if needed) the registry database at path.
func OpenRegistry(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// MarkScraped upserts a record after its raw document was stored.
func (r *Registry) MarkScraped(ctx context.Context, rec GameRecord) error {
	now := time.Now().UTC()
	if rec.ScrapedAt == nil {
		rec.ScrapedAt = &now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO games (table_id, perspective, players, version, arena, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_id, perspective) DO UPDATE SET
			players = excluded.players,
			version = excluded.version,
			arena = excluded.arena,
			scraped_at = excluded.scraped_at`,
		rec.TableID, rec.Perspective, strings.Join(rec.Players, ","),
		rec.Version, boolToInt(rec.Arena), rec.ScrapedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to mark scraped: %w", err)
	}
	return nil
}

// MarkParsed records a successful parse. The row must already exist from
// the scrape; a parse of an unregistered document inserts a bare row.
func (r *Registry) MarkParsed(ctx context.Context, tableID, perspective string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO games (table_id, perspective, parsed_at) VALUES (?, ?, ?)
		ON CONFLICT (table_id, perspective) DO UPDATE SET parsed_at = excluded.parsed_at`,
		tableID, perspective, now)
	if err != nil {
		return fmt.Errorf("failed to mark parsed: %w", err)
	}
	return nil
}

// IsScraped reports whether a raw document was already stored.
func (r *Registry) IsScraped(ctx context.Context, tableID, perspective string) (bool, error) {
	return r.exists(ctx, "scraped_at", tableID, perspective)
}

// IsParsed reports whether a replay was already reconstructed.
func (r *Registry) IsParsed(ctx context.Context, tableID, perspective string) (bool, error) {
	return r.exists(ctx, "parsed_at", tableID, perspective)
}

func (r *Registry) exists(ctx context.Context, column, tableID, perspective string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE table_id = ? AND perspective = ? AND `+column+` IS NOT NULL`,
		tableID, perspective).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query registry: %w", err)
	}
	return n > 0, nil
}

// Get fetches one record, (nil, nil) when absent.
func (r *Registry) Get(ctx context.Context, tableID, perspective string) (*GameRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT table_id, perspective, players, version, arena, scraped_at, parsed_at
		FROM games WHERE table_id = ? AND perspective = ?`, tableID, perspective)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registry record: %w", err)
	}
	return rec, nil
}

// List returns every record, newest scrape first.
func (r *Registry) List(ctx context.Context) ([]GameRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT table_id, perspective, players, version, arena, scraped_at, parsed_at
		FROM games ORDER BY scraped_at DESC, table_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry: %w", err)
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Stats returns the scraped and parsed row counts.
func (r *Registry) Stats(ctx context.Context) (scraped int, parsed int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(scraped_at), COUNT(parsed_at) FROM games`).Scan(&scraped, &parsed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query registry stats: %w", err)
	}
	return scraped, parsed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*GameRecord, error) {
	var rec GameRecord
	var players string
	var arena int
	var scrapedAt, parsedAt sql.NullString
	if err := row.Scan(&rec.TableID, &rec.Perspective, &players, &rec.Version, &arena, &scrapedAt, &parsedAt); err != nil {
		return nil, err
	}
	if players != "" {
		rec.Players = strings.Split(players, ",")
	}
	rec.Arena = arena != 0
	rec.ScrapedAt = parseRegistryTime(scrapedAt)
	rec.ParsedAt = parseRegistryTime(parsedAt)
	return &rec, nil
}

func parseRegistryTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
