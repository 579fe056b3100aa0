package main

import (
	"context"

	"rds-user-initializer/internal/config"
	"rds-user-initializer/pkg/server"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

var container *server.Container

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err = server.NewContainer(context.Background(), cfg)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
}

func main() {
	awslambda.Start(container.Handler.Invoke)
}
