package main

import (
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

// initLogger picks the zap config from APP_ENV. Development config keeps
// colored console output for local runs; production logs JSON to stdout.
func initLogger() {
	var err error
	if os.Getenv("APP_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
}
