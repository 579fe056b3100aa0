package lambda

import (
	"context"
	"sync"

	"rds-user-initializer/internal/config"
	"rds-user-initializer/internal/database"
	"rds-user-initializer/internal/secrets"

	"github.com/sirupsen/logrus"
)

// SecretResolver resolves a secret identifier into database configuration
type SecretResolver interface {
	Resolve(ctx context.Context, secretID string) (*secrets.DatabaseConfig, error)
}

// ConnectionManager owns the per-execution-environment state of the function: the database
// configuration resolved from the secret store, kept across warm invocations.
// Connections are not kept; every invocation gets its own session.
type ConnectionManager struct {
	mu       sync.Mutex
	resolver SecretResolver
	secretID string
	options  config.DatabaseConfig
	factory  *database.ConnectionFactory
	logger   *logrus.Logger
	dbConfig *secrets.DatabaseConfig
}

// NewConnectionManager creates a connection manager for the given secret
func NewConnectionManager(resolver SecretResolver, secretID string, options config.DatabaseConfig, logger *logrus.Logger) *ConnectionManager {
	if logger == nil {
		logger = logrus.New()
	}

	return &ConnectionManager{
		resolver: resolver,
		secretID: secretID,
		options:  options,
		factory:  database.NewConnectionFactory(logger),
		logger:   logger,
	}
}

// Session returns a new unconnected session; connecting it resolves the secret if not yet cached
func (cm *ConnectionManager) Session() *database.Session {
	return database.NewSession(cm.ConnectionConfig, cm.factory, cm.logger)
}

// IsResolved reports whether the database configuration has been cached
func (cm *ConnectionManager) IsResolved() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.dbConfig != nil
}

// Reset drops the cached configuration so the next session resolves the secret again
func (cm *ConnectionManager) Reset() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.dbConfig = nil
}

// ConnectionConfig resolves the secret once and maps it onto the connection options.
// Failures are not cached.
func (cm *ConnectionManager) ConnectionConfig(ctx context.Context) (*database.ConnectionConfig, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.dbConfig == nil {
		dbConfig, err := cm.resolver.Resolve(ctx, cm.secretID)
		if err != nil {
			return nil, err
		}

		cm.dbConfig = dbConfig
		cm.logger.WithField("secret_id", cm.secretID).Info("Database configuration resolved")
	}

	return &database.ConnectionConfig{
		Driver:         cm.options.Driver,
		Host:           cm.dbConfig.Host,
		Port:           cm.dbConfig.Port,
		Username:       cm.dbConfig.Username,
		Password:       cm.dbConfig.Password,
		Database:       cm.dbConfig.DBName,
		SSLMode:        cm.options.SSLMode,
		ConnectTimeout: cm.options.ConnectTimeout,
	}, nil
}
