// Package store database for saved event configurations and the active one
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aouyang1/memoryframe/event"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound    = errors.New("config not found")
	ErrInvalidName = errors.New("invalid config name")
	ErrActive      = errors.New("config is active")
)

var validConfigName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidName reports whether name can be used as a saved configuration name.
func ValidName(name string) bool {
	return validConfigName.MatchString(name)
}

type Database struct {
	db       *sql.DB
	seedPath string
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	// Create table if it doesn't exist
	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

// SeedFrom sets the JSON file used to bootstrap the active configuration when the
// database has none.
func (d *Database) SeedFrom(path string) {
	d.seedPath = path
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS event_configs (
		name       TEXT NOT NULL,
		body       TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (name)
	);
	CREATE TABLE IF NOT EXISTS active_config (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		name      TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

func (d *Database) SaveConfig(name string, cfg *event.Config) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	const stmt = `
		INSERT INTO event_configs (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at
	`
	if _, err := d.db.Exec(stmt, name, string(body), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}

func (d *Database) GetConfig(name string) (*event.Config, error) {
	query := `SELECT body FROM event_configs WHERE name = ?`
	var body string
	err := d.db.QueryRow(query, name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}

	cfg, err := event.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("stored config %s is corrupt: %w", name, err)
	}
	return cfg, nil
}

func (d *Database) ListConfigs() ([]ConfigSummary, error) {
	query := `
		SELECT c.name, c.body, c.updated_at, COALESCE(a.singleton, 0)
		FROM event_configs c
		LEFT JOIN active_config a ON a.name = c.name
		ORDER BY c.name ASC
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query configs: %w", err)
	}
	defer rows.Close()

	summaries := []ConfigSummary{}
	for rows.Next() {
		var (
			s         ConfigSummary
			body      string
			updatedAt int64
			active    int
		)
		if err := rows.Scan(&s.Name, &body, &updatedAt, &active); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		var head struct {
			Title string `json:"title"`
		}
		// a body we can't read still lists by name
		_ = json.Unmarshal([]byte(body), &head)
		s.Title = head.Title
		s.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		s.Active = active != 0
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return summaries, nil
}

// DeleteConfig removes a saved configuration. The active one cannot be deleted.
func (d *Database) DeleteConfig(name string) error {
	query := `
		DELETE FROM event_configs
		WHERE name = ? AND name NOT IN (SELECT name FROM active_config)
	`
	result, err := d.db.Exec(query, name)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var count int
		if err := d.db.QueryRow(`SELECT COUNT(*) FROM event_configs WHERE name = ?`, name).Scan(&count); err != nil {
			return fmt.Errorf("failed to check config existence: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrActive, name)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// SetActive points the active configuration at an existing saved one.
func (d *Database) SetActive(name string) error {
	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM event_configs WHERE name = ?`, name).Scan(&count); err != nil {
		return fmt.Errorf("failed to check config existence: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	const stmt = `
		INSERT INTO active_config (singleton, name) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			name = excluded.name
	`
	if _, err := d.db.Exec(stmt, name); err != nil {
		return fmt.Errorf("upsert active config: %w", err)
	}
	return nil
}

// SaveActive stores cfg under name and makes it active.
func (d *Database) SaveActive(name string, cfg *event.Config) error {
	if err := d.SaveConfig(name, cfg); err != nil {
		return err
	}
	return d.SetActive(name)
}

// GetActive returns the active configuration. When none has been chosen yet it is
// bootstrapped from the seed file, or from an empty configuration without one.
func (d *Database) GetActive() (string, *event.Config, error) {
	const query = `SELECT name FROM active_config WHERE singleton = 1`

	var name string
	err := d.db.QueryRow(query).Scan(&name)
	if err == sql.ErrNoRows {
		// Bootstrap defaults if no active row exists yet
		cfg := &event.Config{}
		if d.seedPath != "" {
			seeded, err := event.LoadFile(d.seedPath)
			if err != nil {
				return "", nil, fmt.Errorf("failed to seed active config: %w", err)
			}
			cfg = seeded
		}
		if err := d.SaveActive(DefaultConfigName, cfg); err != nil {
			return "", nil, err
		}
		return DefaultConfigName, cfg, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("get active config: %w", err)
	}

	cfg, err := d.GetConfig(name)
	if err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
