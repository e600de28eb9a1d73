// Package persistence provides SQLite-based save storage. Game state is
// saved as one JSON payload per logical domain so a corrupt domain costs
// only itself on load.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/bakerysim/internal/engine"
)

// DB wraps a SQLite connection for save-game persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS save_domains (
		domain TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		time TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveDomain writes one domain payload (upsert).
func (db *DB) SaveDomain(domain string, payload []byte) error {
	_, err := db.conn.Exec(
		`INSERT INTO save_domains (domain, payload, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(domain) DO UPDATE SET
		   payload = excluded.payload, updated_at = excluded.updated_at`,
		domain, string(payload),
	)
	return err
}

// LoadDomain reads one domain payload. A missing domain returns nil, nil.
func (db *DB) LoadDomain(domain string) ([]byte, error) {
	var payload string
	err := db.conn.Get(&payload, "SELECT payload FROM save_domains WHERE domain = ?", domain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, time, description, category) VALUES (?, ?, ?, ?)",
			e.Tick, e.Time.UTC().Format("2006-01-02T15:04:05Z"), e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in game metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}

// SaveGame writes every domain of the simulation plus the tick marker.
func (db *DB) SaveGame(sim *engine.Simulation) error {
	domains, err := sim.DomainSnapshots()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for domain, payload := range domains {
		_, err := tx.Exec(
			`INSERT INTO save_domains (domain, payload, updated_at)
			 VALUES (?, ?, datetime('now'))
			 ON CONFLICT(domain) DO UPDATE SET
			   payload = excluded.payload, updated_at = excluded.updated_at`,
			domain, string(payload),
		)
		if err != nil {
			return fmt.Errorf("save domain %s: %w", domain, err)
		}
	}
	_, err = tx.Exec(
		"INSERT OR REPLACE INTO game_meta (key, value) VALUES ('last_tick', ?)",
		fmt.Sprintf("%d", sim.CurrentTick()),
	)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("game saved", "domains", len(domains), "tick", sim.CurrentTick())
	return nil
}

// LoadGame restores every persisted domain, best-effort: a missing or
// malformed domain is logged and left at its initial state.
func (db *DB) LoadGame(sim *engine.Simulation) error {
	domains := []string{
		engine.DomainEconomy,
		engine.DomainIngredients,
		engine.DomainRecipes,
		engine.DomainInventory,
		engine.DomainOrders,
		engine.DomainSuppliers,
		engine.DomainMarket,
		engine.DomainPlayer,
		engine.DomainStats,
	}

	loaded := 0
	for _, domain := range domains {
		payload, err := db.LoadDomain(domain)
		if err != nil {
			return fmt.Errorf("load domain %s: %w", domain, err)
		}
		if payload == nil {
			continue
		}
		if err := sim.RestoreDomain(domain, payload); err != nil {
			slog.Warn("corrupt save domain, using defaults", "domain", domain, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("game loaded", "domains", loaded)
	return nil
}

// RecentEvents returns the most recent N events from the log.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
