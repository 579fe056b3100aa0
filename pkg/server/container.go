package server

import (
	"context"
	"fmt"

	"rds-user-initializer/internal/config"
	"rds-user-initializer/internal/customresource"
	"rds-user-initializer/internal/scripts"
	"rds-user-initializer/internal/secrets"
	"rds-user-initializer/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Script  *scripts.Script
	Manager *lambda.ConnectionManager
	Handler *customresource.Handler
}

// NewContainer creates a new dependency injection container backed by AWS Secrets Manager
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	client, err := secrets.NewSecretsManagerClient(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager client: %w", err)
	}

	return NewContainerWithClient(cfg, client)
}

// NewContainerWithClient creates a container around an existing secret store client
func NewContainerWithClient(cfg *config.Config, client secrets.SecretsManagerAPI) (*Container, error) {
	logger := config.NewLogger(cfg)

	script, err := scripts.Load(cfg.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to load init script: %w", err)
	}

	resolver := newResolver(cfg, client, logger)
	manager := lambda.NewConnectionManager(resolver, cfg.SecretName, cfg.Database, logger)

	handler := customresource.NewHandler(func() customresource.Session {
		return manager.Session()
	}, script, logger)

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"script":      script.Name,
		"driver":      cfg.Database.Driver,
	}).Info("Container initialized")

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Script:  script,
		Manager: manager,
		Handler: handler,
	}, nil
}

// newResolver builds the secret resolver; lookups are attempted once unless SECRET_RETRY_ATTEMPTS raises it
func newResolver(cfg *config.Config, client secrets.SecretsManagerAPI, logger *logrus.Logger) *secrets.RetryingResolver {
	retry := secrets.DefaultRetryConfig()
	retry.MaxAttempts = cfg.AWS.RetryAttempts
	return secrets.NewRetryingResolver(secrets.NewResolver(client, logger), retry, logger)
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Manager != nil {
		c.Manager.Reset()
	}
	return nil
}
