package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/app"
	"github.com/BuzzLyutic/serverless-todo/internal/config"
	"github.com/BuzzLyutic/serverless-todo/internal/handler"
	"github.com/BuzzLyutic/serverless-todo/internal/service"
)

var chiLambda *chiadapter.ChiLambdaV2

// init runs once per cold start; warm invocations reuse the store client.
func init() {
	cfg := config.Load()

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	store, _, err := app.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}

	taskService := service.NewTaskService(store, logger)
	r := handler.NewRouter(handler.NewTaskHandler(taskService, logger), handler.RouterOptions{
		Owner:          handler.APIGatewayOwner,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	chiLambda = chiadapter.NewV2(r)
	logger.Info("Lambda initialized", zap.String("store", cfg.StoreDriver), zap.String("table", cfg.TableName))
}

func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
