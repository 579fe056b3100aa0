package main

import (
	"context"
	"flag"
	"fmt"

	"rds-user-initializer/internal/config"
	"rds-user-initializer/internal/database"
	"rds-user-initializer/internal/scripts"
	"rds-user-initializer/internal/secrets"
	"rds-user-initializer/pkg/lambda"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		action  = flag.String("action", "up", "Migration action: up, down, status, validate")
		secret  = flag.String("secret", "", "Secret id holding the database credentials (defaults to SECRET_NAME)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if *secret != "" {
		cfg.SecretName = *secret
	}

	// Setup logger
	logger := config.NewLogger(cfg)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.WithFields(logrus.Fields{
		"secret": cfg.SecretName,
		"driver": cfg.Database.Driver,
		"action": *action,
	}).Info("Starting migration tool")

	if *action == "validate" {
		if err := validateScripts(); err != nil {
			logger.WithError(err).Fatal("Script validation failed")
		}
		logger.Info("Migration tool completed successfully")
		return
	}

	if !isMigrationAction(*action) {
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status, validate")
	}

	migrationManager, err := openMigrationManager(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// runAction closes the manager before returning
	if err := runAction(migrationManager, *action); err != nil {
		logger.WithError(err).WithField("action", *action).Fatal("Migration failed")
	}

	logger.Info("Migration tool completed successfully")
}

// migrator is the part of the migration manager the actions use
type migrator interface {
	Up() error
	Down() error
	Status() (*database.MigrationInfo, error)
	Close() error
}

func isMigrationAction(action string) bool {
	switch action {
	case "up", "down", "status":
		return true
	}
	return false
}

// runAction runs one action and always closes m
func runAction(m migrator, action string) (err error) {
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close migration manager: %w", closeErr)
		}
	}()

	switch action {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "status":
		return showMigrationStatus(m)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func openMigrationManager(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*database.MigrationManager, error) {
	client, err := secrets.NewSecretsManagerClient(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	retry := secrets.DefaultRetryConfig()
	retry.MaxAttempts = cfg.AWS.RetryAttempts
	resolver := secrets.NewRetryingResolver(secrets.NewResolver(client, logger), retry, logger)

	manager := lambda.NewConnectionManager(resolver, cfg.SecretName, cfg.Database, logger)

	connCfg, err := manager.ConnectionConfig(ctx)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnectionFactory(logger).Open(ctx, connCfg)
	if err != nil {
		return nil, err
	}

	migrationManager, err := database.NewMigrationManager(db, cfg.Database.Driver, scripts.FS(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return migrationManager, nil
}

func showMigrationStatus(m migrator) error {
	status, err := m.Status()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	fmt.Printf("  Timestamp: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}

func validateScripts() error {
	names, err := scripts.List()
	if err != nil {
		return fmt.Errorf("failed to list scripts: %w", err)
	}

	for _, name := range names {
		script, err := scripts.Load(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %06d %s (%d bytes)\n", script.Version, script.Name, len(script.SQL))
	}

	return nil
}
