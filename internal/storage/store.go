package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"conti/internal/log"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $n for Postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Options describes how to reach the database.
type Options struct {
	Driver      Dialect
	SQLitePath  string
	DatabaseURL string
}

func (o Options) dsn() string {
	if o.Driver == Postgres {
		return o.DatabaseURL
	}
	return "file:" + o.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Store owns the connection pool. Callers never share a connection: each
// operation checks one out with Acquire and releases it when done.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = SQLite
	}
	switch opts.Driver {
	case SQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	case Postgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("database url is required")
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver.driverName(), opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}
	if opts.Driver == SQLite {
		// single writer
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Database ready",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpMigrate,
		"driver", string(opts.Driver))
	return &Store{db: db, dialect: opts.Driver}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Acquire checks a connection out of the pool. The returned Session must be
// closed on every exit path. The sqlite pool holds a single connection, so a
// caller holding a Session must not call into anything else that acquires one,
// such as the ledger services, until the Session is closed.
func (s *Store) Acquire(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn, dialect: s.dialect}, nil
}

func (d Dialect) txOptions() *sql.TxOptions {
	if d == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// Session is one checked-out connection.
type Session struct {
	conn    *sql.Conn
	dialect Dialect
}

// Queries runs statements outside of a transaction.
func (s *Session) Queries() *Queries {
	return New(s.conn, s.dialect)
}

// InTx runs fn inside a database transaction on this session's connection.
// fn's error, or a panic, rolls the transaction back.
func (s *Session) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, s.dialect.txOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(New(tx, s.dialect)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", log.FieldComponent, log.ComponentStorage, log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}
