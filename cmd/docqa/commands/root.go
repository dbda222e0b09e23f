package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	envFile  string
	logLevel string
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about your documents",
		Long: `docqa indexes PDF, DOCX, TXT, CSV and Markdown files into a vector index
and answers questions about them with a language model, keeping the
conversation history between questions.

Without a subcommand it starts the interactive chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "Load environment variables from this file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")

	cmd.AddCommand(
		newChatCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newIndexCmd(opts),
		NewVersionCmd(),
	)

	return cmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the env file and the environment. The default .env may be
// absent, an explicitly named one may not.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	if err := godotenv.Load(opts.envFile); err != nil {
		explicit := cmd.Flags().Changed("env-file")
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Setup(level, cmd.ErrOrStderr())

	return cfg, nil
}

// openApp loads the configuration and returns an initialised application.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app.App, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	if err := a.Init(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, nil
}
