package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	log "github.com/sirupsen/logrus"
)

// Config holds the connection settings of the metadata database
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	MaxConns int
}

// TiDBConnection represents a TiDB database connection.
// sql.DB is already safe for concurrent use and pools its own connections.
type TiDBConnection struct {
	db *sql.DB
}

var tlsOnce sync.Once

// DSN builds the driver DSN. Remote hosts get TLS, localhost never does.
func (c Config) DSN() string {
	port := c.Port
	if port == "" {
		port = "4000"
	}
	database := c.Database
	if database == "" {
		database = "fieldsync"
	}

	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", c.Host, port)
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if c.isRemote() {
		cfg.TLSConfig = "tidb"
	}
	return cfg.FormatDSN()
}

func (c Config) isRemote() bool {
	return c.Host != "" && c.Host != "127.0.0.1" && c.Host != "localhost"
}

// Open creates a new TiDB connection and pings it
func Open(ctx context.Context, c Config) (*TiDBConnection, error) {
	if c.isRemote() {
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("tidb", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: c.Host,
			}); err != nil {
				log.Printf("Failed to register TLS config: %v", err)
			}
		})
	}

	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := c.MaxConns
	if maxConns <= 0 {
		maxConns = 20
	}
	// Idle must equal open, otherwise connections churn under load
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TiDBConnection{db: db}, nil
}

// Wrap adopts an existing *sql.DB (tests use sqlmock here)
func Wrap(db *sql.DB) *TiDBConnection {
	return &TiDBConnection{db: db}
}

// QueryContext executes a SELECT query with context
func (c *TiDBConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// ExecContext executes an INSERT, UPDATE, DELETE or DDL statement with context
func (c *TiDBConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction with context
func (c *TiDBConnection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, opts)
}

// DB returns the underlying *sql.DB connection
func (c *TiDBConnection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *TiDBConnection) Close() error {
	return c.db.Close()
}
