package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS guild_entries (
	guild_id   TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (guild_id, key)
)`

// SQLite is a single file store for running without external services.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, guildID, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM guild_entries WHERE guild_id = ? AND key = ?`, guildID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *SQLite) Set(ctx context.Context, guildID, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guild_entries (guild_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(guild_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		guildID, key, value)
	return err
}

func (s *SQLite) Delete(ctx context.Context, guildID, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM guild_entries WHERE guild_id = ? AND key = ?`, guildID, key)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
