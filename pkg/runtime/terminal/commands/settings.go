package commands

import (
	"context"

	"github.com/de-tools/snapshot-sweeper/pkg/logging"
	"github.com/de-tools/snapshot-sweeper/pkg/services/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadSettings reads the configuration for cmd and returns a context carrying
// a logger at the configured level.
func loadSettings(cmd *cobra.Command) (*config.Settings, context.Context, error) {
	file, _ := cmd.Flags().GetString("config")

	settings, err := config.Load(config.LoadOptions{
		File:  file,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(cmd.ErrOrStderr(), settings.LogLevel)
	return settings, logger.WithContext(ctx), nil
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
