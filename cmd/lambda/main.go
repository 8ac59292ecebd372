// Package main is the AWS Lambda entrypoint of the subscription endpoint,
// served behind an API Gateway proxy integration.
package main

import (
	"context"
	"notify/internal/api"
	"notify/internal/config"
	"notify/pkg/logger"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// handle builds the endpoint from the environment on every invocation.
func handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return api.NewLambdaHandler(api.NewNotifyHandlerFromEnv())(ctx, event)
}

func main() {
	environment := logger.ProductionEnvironment
	if cfg, err := config.FromEnv(); err == nil {
		environment = cfg.Environment
	}
	logger.Setup(environment)
	defer logger.Sync(context.Background())

	lambda.Start(handle)
}
