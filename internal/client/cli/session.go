package cli

import (
	"bufio"
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
)

// NewREPLCommand creates the interactive session command.
func NewREPLCommand(rootOpts *RootOptions) *cobra.Command {
	var withLive bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive feed and composer session",
		Long: `Start an interactive session. Feeds are browsed with open/more/show,
toggles apply immediately and settle in the background, and attachments
upload as soon as they are attached.

Example:
  feedsync repl --api 127.0.0.1:50051 --live-updates`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, release, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if withLive {
				go func() { _ = app.RunLive(ctx) }()
			}
			printlnFn("Welcome to feedsync (type 'help' for commands)")
			runREPL(ctx, app, app.Status, bufio.NewScanner(cmd.InOrStdin()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withLive, "live-updates", false, "apply live count updates while the session runs")
	return cmd
}

// NewFeedCommand creates the one-shot feed listing command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "feed [collection]",
		Short: "Print a collection",
		Long: `Print the first pages of a collection and store a snapshot of it.
Without an argument the collection of the previous session is used.

Example:
  feedsync feed company:acme --pages 2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, release, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer release()
			return printPages(cmd, app, args, pages)
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	return cmd
}

func printPages(cmd *cobra.Command, app *App, args []string, pages int) error {
	ctx := cmd.Context()
	c, err := app.open(ctx, args, true)
	if err != nil {
		return err
	}
	for c.PageCount() < pages && c.HasNextPage() {
		if err := c.LoadMore(ctx); err != nil {
			if errors.Is(err, cache.ErrNoMorePages) {
				break
			}
			if errors.Is(err, cache.ErrSuperseded) {
				continue
			}
			return err
		}
	}
	return app.Show(ctx)
}

// NewLiveCommand creates the command that keeps collections current from the
// live update stream.
func NewLiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [collection...]",
		Short: "Follow live updates for collections",
		Long: `Open the given collections and apply authoritative count and edit updates
from the live endpoint until interrupted. Snapshots are stored on exit.

Example:
  feedsync live feed saved --live ws://127.0.0.1:8080/v1/live`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, release, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer release()

			if app.live == nil {
				return errors.New("no live URL configured")
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				args = []string{""}
			}
			for _, key := range args {
				var keyArgs []string
				if key != "" {
					keyArgs = []string{key}
				}
				c, err := app.open(ctx, keyArgs, false)
				if err != nil {
					return err
				}
				app.printf("following %s (%d entries)\n", c.Key(), len(c.Merged()))
			}
			return app.RunLive(ctx)
		},
	}
	return cmd
}
