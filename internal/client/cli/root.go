package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/config"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// Token is the bearer token sent to the feed API and the live endpoint.
	Token string
}

// NewRootCommand creates the root command of the feedsync client.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "feedsync",
		Short: "JoyWork feed and composer client",
		Long: `feedsync keeps a local, optimistically updated copy of JoyWork feeds and
uploads post attachments to object storage.

Settings come from defaults, an optional feedsync.yaml, FEEDSYNC_* environment
variables and flags, in increasing precedence.`,
	}

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("FEEDSYNC_TOKEN"), "bearer token for the feed API")

	cmd.AddCommand(NewREPLCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewUploadCommand(opts))
	cmd.AddCommand(NewLiveCommand(opts))

	return cmd
}

// setup loads configuration from cmd's flags and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel), nil
}

// openApp is setup plus NewApp. The returned release persists the session
// even when ctx is already cancelled.
func openApp(cmd *cobra.Command, opts *RootOptions) (*App, func(), error) {
	ctx := cmd.Context()
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	app, err := NewApp(ctx, cfg, cmd.OutOrStdout(), logger, opts.Token)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error(ctx, "failed to close session", "error", err)
		}
	}
	return app, release, nil
}
