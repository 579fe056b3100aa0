package config

import (
	"os"
)

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

// GetServerlessConfig returns the serverless configuration of the current process
func GetServerlessConfig() *ServerlessConfig {
	return &ServerlessConfig{
		IsLambda:     isRunningInLambda(),
		FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Region:       os.Getenv("AWS_REGION"),
		Stage:        GetEnv("STAGE", "dev"),
	}
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return isRunningInLambda()
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "local"
}

// AdaptConfigForServerless modifies configuration for Lambda deployment.
// CloudWatch ingests JSON lines and RDS only accepts encrypted connections from the function.
func AdaptConfigForServerless(config *Config) *Config {
	if !IsServerlessMode() {
		return config
	}

	config.LogFormat = "json"

	if config.Database.Driver == DriverPostgres && !GetEnvAsBool("DB_ALLOW_INSECURE", false) {
		switch config.Database.SSLMode {
		case "disable", "allow", "prefer":
			config.Database.SSLMode = "require"
		}
	}

	if config.AWS.Region == "" {
		config.AWS.Region = GetServerlessConfig().Region
	}

	return config
}

// GetOptimizedConfig returns configuration adapted for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	config = AdaptConfigForServerless(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
