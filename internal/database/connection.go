package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"rds-user-initializer/internal/scripts"

	"github.com/sirupsen/logrus"
)

// ConfigSource supplies the connection configuration when a session connects
type ConfigSource func(ctx context.Context) (*ConnectionConfig, error)

// ExecResult is the outcome of executing a script
type ExecResult struct {
	Script       string
	Version      uint
	RowsAffected int64
}

// Data returns the result as a custom-resource response payload
func (r *ExecResult) Data() map[string]interface{} {
	return map[string]interface{}{
		"Script":       r.Script,
		"Version":      r.Version,
		"RowsAffected": r.RowsAffected,
	}
}

// Session is a single database session with explicit acquire and release.
// Close is safe to call whether or not Connect succeeded, and more than once.
type Session struct {
	mu      sync.Mutex
	source  ConfigSource
	factory *ConnectionFactory
	logger  *logrus.Logger
	db      *sql.DB
}

// NewSession creates an unconnected session
func NewSession(source ConfigSource, factory *ConnectionFactory, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	if factory == nil {
		factory = NewConnectionFactory(logger)
	}
	return &Session{
		source:  source,
		factory: factory,
		logger:  logger,
	}
}

// Connect resolves the configuration and opens the connection.
// Configuration errors are returned unchanged so callers see the resolver's message.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return ErrAlreadyConnected
	}

	cfg, err := s.source(ctx)
	if err != nil {
		return err
	}

	db, err := s.factory.Open(ctx, cfg)
	if err != nil {
		return err
	}

	s.db = db
	return nil
}

// Exec runs a script as a single multi-statement exec
func (s *Session) Exec(ctx context.Context, script *scripts.Script) (*ExecResult, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()

	if db == nil {
		return nil, ErrNotConnected
	}

	result, err := db.ExecContext(ctx, script.SQL)
	if err != nil {
		return nil, &StatementExecutionError{Statement: script.Name, Err: err}
	}

	// Not every driver reports affected rows for utility statements.
	rows, err := result.RowsAffected()
	if err != nil {
		rows = 0
	}

	s.logger.WithFields(logrus.Fields{
		"script":        script.Name,
		"rows_affected": rows,
	}).Info("Script executed")

	return &ExecResult{Script: script.Name, Version: script.Version, RowsAffected: rows}, nil
}

// IsConnected reports whether Connect succeeded and Close has not run yet
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Close releases the connection
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	s.logger.Debug("Database connection closed")
	return nil
}
