// Package hikestore implements the persistent hike log.
//
// It keeps hikes and their observations in a single SQLite file, migrates
// older on-disk layouts through a versioned migration table, and answers
// CRUD and search calls against whatever column set the live schema has.
// CRUD and search never return errors: failures are logged and reported
// through neutral values (-1 ids, zero row counts, empty lists).
package hikestore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/ansel1/merry"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sqlx.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds hike store configuration.
type Config struct {
	DataDir string
	DBFile  string
}

// DefaultConfig returns the default configuration for the hike store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".hikelog"),
		DBFile:  "hikelog.db",
	}
}

// Path returns the database file path.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the hike log backed by SQLite.
type Store struct {
	db     *sqlx.DB
	cfg    Config
	log    *structlog.Logger
	hooks  storeHooks
	schema liveSchema
	steps  []StepResult
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Queryx(query string, args ...any) (*sqlx.Rows, error)
}

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	queryx  func(db queryer, query string, args ...any) (*sqlx.Rows, error)
	beginTx func(db *sqlx.DB) (*sqlx.Tx, error)
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryHook(db queryer, query string, args ...any) (*sqlx.Rows, error) {
	if s.hooks.queryx != nil {
		return s.hooks.queryx(db, query, args...)
	}
	return db.Queryx(query, args...)
}

func (s *Store) beginTxHook() (*sqlx.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Beginx()
}

// New creates a Store with the given configuration.
// It creates the data directory if needed, opens SQLite with foreign keys
// enforced on every connection, and runs pending migrations.
func New(cfg Config) (*Store, error) {
	if cfg.DBFile == "" {
		cfg.DBFile = DefaultConfig().DBFile
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, merry.Prepend(err, "hikestore: create data dir")
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := cfg.Path() + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, merry.Prepend(err, "hikestore: open database")
	}

	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		db:  db,
		cfg: cfg,
		log: structlog.New(structlog.KeyUnit, "hikestore"),
	}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, merry.Prepend(err, "hikestore: migration")
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file this store writes to.
func (s *Store) Path() string {
	return s.cfg.Path()
}

// fail logs err once at an operation boundary.
func (s *Store) fail(op string, err error, keyvals ...any) {
	s.log.PrintErr(err, append([]any{"op", op}, keyvals...)...)
}
