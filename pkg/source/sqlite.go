package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// SQLite stores one topology snapshot in a devices and a links table.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS devices (
		ieee_addr TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		friendly_name TEXT,
		type TEXT NOT NULL,
		network_address INTEGER NOT NULL DEFAULT 0,
		manufacturer TEXT,
		model_id TEXT,
		last_seen DATETIME
	);

	CREATE TABLE IF NOT EXISTS links (
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		link_quality INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		relationship INTEGER NOT NULL DEFAULT 0,
		type TEXT
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load reads the stored snapshot. An empty database is NOT_FOUND.
func (s *SQLite) Load(ctx context.Context) (*topology.Graph, error) {
	doc := &topology.Document{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ieee_addr, friendly_name, type, network_address, manufacturer, model_id, last_seen
		FROM devices ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d                           topology.Device
			typ                         string
			name, manufacturer, modelID sql.NullString
			lastSeen                    sql.NullTime
		)
		if err := rows.Scan(&d.IEEEAddr, &name, &typ, &d.NetworkAddress, &manufacturer, &modelID, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.Type = topology.DeviceType(typ)
		d.FriendlyName = nullToString(name)
		d.ManufacturerName = nullToString(manufacturer)
		d.ModelID = nullToString(modelID)
		d.LastSeen = nullToTimePtr(lastSeen)
		doc.Nodes = append(doc.Nodes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot in %s", s.path)
	}

	linkRows, err := s.db.QueryContext(ctx, `
		SELECT source, target, link_quality, depth, relationship, type
		FROM links ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer linkRows.Close()

	g, err := doc.Graph()
	if err != nil {
		return nil, err
	}
	for linkRows.Next() {
		var (
			l   topology.Link
			typ sql.NullString
		)
		if err := linkRows.Scan(&l.Source, &l.Target, &l.LinkQuality, &l.Depth, &l.Relationship, &typ); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Type = nullToString(typ)
		g.Links = append(g.Links, &l)
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	var ts sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'timestamp'`).Scan(&ts)
	if err == nil && ts.Valid {
		g.Timestamp, _ = time.Parse(time.RFC3339Nano, ts.String)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Save replaces the stored snapshot with g in one transaction.
func (s *SQLite) Save(ctx context.Context, g *topology.Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM links`, `DELETE FROM devices`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	for i, n := range g.Nodes {
		d := n.Device
		_, err := tx.ExecContext(ctx, `
			INSERT INTO devices (ieee_addr, position, friendly_name, type, network_address, manufacturer, model_id, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ID, i, stringToNull(d.FriendlyName), string(d.Type), d.NetworkAddress,
			stringToNull(d.ManufacturerName), stringToNull(d.ModelID), timePtrToNull(d.LastSeen))
		if err != nil {
			return fmt.Errorf("insert device %s: %w", n.ID, err)
		}
	}
	for i, l := range g.Links {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO links (position, source, target, link_quality, depth, relationship, type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, l.Source, l.Target, l.LinkQuality, l.Depth, l.Relationship, stringToNull(l.Type))
		if err != nil {
			return fmt.Errorf("insert link %s->%s: %w", l.Source, l.Target, err)
		}
	}

	ts := g.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES ('timestamp', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, ts.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write timestamp: %w", err)
	}

	return tx.Commit()
}

// Name returns "sqlite:<path>".
func (s *SQLite) Name() string { return KindSQLite + ":" + s.path }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullToTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
