package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"rds-user-initializer/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ConnectionConfig holds everything needed to open one database session
type ConnectionConfig struct {
	Driver         string
	Host           string
	Port           int
	Username       string
	Password       string
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN builds the driver-specific data source name
func (c *ConnectionConfig) DSN() string {
	if c.Driver == config.DriverSQLite {
		return c.Database
	}
	return c.postgresURL().String()
}

// Redacted returns the DSN with the password masked, for logs and error messages
func (c *ConnectionConfig) Redacted() string {
	if c.Driver == config.DriverSQLite {
		return c.Database
	}
	return c.postgresURL().Redacted()
}

func (c *ConnectionConfig) postgresURL() *url.URL {
	query := url.Values{}
	if c.SSLMode != "" {
		query.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		seconds := int(c.ConnectTimeout / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		query.Set("connect_timeout", strconv.Itoa(seconds))
	}

	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
}

// ConnectionFactory opens database connections
type ConnectionFactory struct {
	logger *logrus.Logger
}

// NewConnectionFactory creates a new connection factory
func NewConnectionFactory(logger *logrus.Logger) *ConnectionFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionFactory{
		logger: logger,
	}
}

// Open opens a single-connection handle and verifies it with a ping
func (f *ConnectionFactory) Open(ctx context.Context, cfg *ConnectionConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, &ConnectionError{Target: cfg.Driver, Err: fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)}
	}

	target := cfg.Redacted()

	f.logger.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"target": target,
	}).Debug("Opening database connection")

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, &ConnectionError{Target: target, Err: err}
	}

	// One bootstrap statement per session, never more than one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &ConnectionError{Target: target, Err: err}
	}

	f.logger.WithField("target", target).Info("Database connection established")
	return db, nil
}
