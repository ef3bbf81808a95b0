package terminal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/de-tools/snapshot-sweeper/pkg/app"
	"github.com/de-tools/snapshot-sweeper/pkg/runtime/terminal/commands"
	"github.com/de-tools/snapshot-sweeper/pkg/runtime/terminal/export"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	newRunner app.RunnerFactory
	reporter  *export.Reporter
	rootCmd   *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	NewRunner app.RunnerFactory
	Output    io.Writer
	// EnvFile is loaded into the environment when present. Defaults to .env.
	EnvFile string
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.NewRunner == nil {
		opts.NewRunner = app.NewRunner
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}

	cli := &CLI{
		newRunner: opts.NewRunner,
		reporter:  export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd(opts)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "snapshot-sweeper",
		Short:         "Retention sweeper for copied RDS snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// existing environment wins over the file
			if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}
	cmd.SetOut(opts.Output)

	cmd.PersistentFlags().String("config", "", "Optional config file (yaml, json, toml or env)")
	cmd.PersistentFlags().String("region", "", "AWS region of the snapshots (defaults to DEST_REGION, then AWS_DEFAULT_REGION)")
	cmd.PersistentFlags().String("log-level", "", "Log level (defaults to LOG_LEVEL, then ERROR)")

	cmd.AddCommand(commands.NewSweepCmd(cli.newRunner, cli.reporter))
	cmd.AddCommand(commands.NewRetainDaysCmd())
	cmd.AddCommand(commands.NewServeCmd(cli.newRunner))

	return cmd
}
