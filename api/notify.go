// Package handler is the Vercel serverless function serving /api/notify.
package handler

import (
	"net/http"
	"notify/internal/api"
	"notify/pkg/logger"
	"os"
	"sync"
)

var setupLogger sync.Once //nolint: gochecknoglobals

// Handler is the entry point for Vercel serverless functions. The
// configuration is read from the environment on every invocation.
func Handler(w http.ResponseWriter, r *http.Request) {
	setupLogger.Do(func() {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = logger.ProductionEnvironment
		}
		logger.Setup(environment)
	})

	api.NewNotifyHandlerFromEnv().ServeHTTP(w, r)
}
