package secrets

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// DatabaseConfig is the database secret record as written by RDS
type DatabaseConfig struct {
	DBName   string `json:"dbname" validate:"required"`
	Host     string `json:"host" validate:"required"`
	Password string `json:"password" validate:"required"`
	Port     int    `json:"port" validate:"required,min=1,max=65535"`
	Username string `json:"username" validate:"required"`
}

// SecretsManagerAPI is the subset of the Secrets Manager client used by the resolver
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches database configuration from Secrets Manager
type Resolver struct {
	client    SecretsManagerAPI
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewResolver creates a new secret resolver
func NewResolver(client SecretsManagerAPI, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}

	return &Resolver{
		client:    client,
		validator: validator.New(),
		logger:    logger,
	}
}

// Resolve fetches the secret with the given identifier and parses it as a database configuration
func (r *Resolver) Resolve(ctx context.Context, secretID string) (*DatabaseConfig, error) {
	// The SDK rejects an empty SecretId before sending, report it the same way as an absent secret.
	if secretID == "" {
		return nil, &MissingSecretError{SecretID: secretID}
	}

	output, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, &MissingSecretError{SecretID: secretID, Err: err}
		}
		return nil, &StoreUnavailableError{SecretID: secretID, Err: err}
	}

	if output == nil || output.SecretString == nil || *output.SecretString == "" {
		return nil, &MissingSecretError{SecretID: secretID}
	}

	var config DatabaseConfig
	if err := json.Unmarshal([]byte(*output.SecretString), &config); err != nil {
		return nil, &InvalidSecretError{SecretID: secretID, Err: err}
	}

	if err := r.validator.Struct(&config); err != nil {
		return nil, &InvalidSecretError{SecretID: secretID, Err: err}
	}

	r.logger.WithFields(logrus.Fields{
		"secret_id": secretID,
		"host":      config.Host,
		"dbname":    config.DBName,
	}).Debug("Resolved database secret")

	return &config, nil
}
