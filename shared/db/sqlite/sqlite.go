package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/dfryer1193/artblog/shared/db"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "./artblog.db"

type SQLiteConfig struct {
	Path string
}

var _ db.Database = (*SQLiteDB)(nil)

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance. An empty path falls back to DefaultPath.
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return &SQLiteDB{
		dbPath: path,
	}
}

// Connect opens a connection to the SQLite database and applies pending migrations.
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // readers do not block the sync writer
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",  // milliseconds
		"PRAGMA cache_size=-64000",  // negative means KiB
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = conn

	if err := runMigrations(conn); err != nil {
		conn.Close()
		s.db = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debug().Str("path", s.dbPath).Msg("SQLite database ready")
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
