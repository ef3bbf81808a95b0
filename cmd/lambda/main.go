package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/de-tools/snapshot-sweeper/pkg/app"
	"github.com/de-tools/snapshot-sweeper/pkg/logging"
	"github.com/de-tools/snapshot-sweeper/pkg/services/config"
	"github.com/de-tools/snapshot-sweeper/pkg/services/scheduler"
	"github.com/rs/zerolog"
)

type handler struct {
	runner scheduler.Runner
	logger zerolog.Logger
}

// Handle runs one sweep per invocation. The event payload is ignored.
func (h *handler) Handle(ctx context.Context, _ json.RawMessage) error {
	ctx = h.logger.WithContext(ctx)
	_, err := h.runner.Run(ctx)
	return err
}

func main() {
	settings, err := config.Load(config.LoadOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, settings.LogLevel)
	ctx := logger.WithContext(context.Background())

	runner, err := app.NewRunner(ctx, settings, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise sweeper")
	}

	h := &handler{runner: runner, logger: logger}
	lambda.Start(h.Handle)
}
