package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/logger"
	"github.com/eringen/spacetraveling/views"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	envFiles []string
	cfg      spacetraveling.SiteConfig
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spacetraveling",
		Short:         "spacetraveling - a blog front-end for a Prismic repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			c, err := spacetraveling.LoadConfig(envFiles...)
			if err != nil {
				return err
			}
			cfg = c
			logger.Init(logger.Options{
				Dev:       cfg.IsDevelopment(),
				SentryDSN: cfg.SentryDSN,
				Env:       cfg.Env,
				Release:   version,
				Site:      cfg.Name,
			})
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")
	root.AddCommand(newServeCmd(), newBuildCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Addr = addr
			}
			app := spacetraveling.New(cfg, views.New(), spacetraveling.WithLogger(logger.Log))
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func newBuildCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Export the whole site as static files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = cfg.OutputDir
			}
			app := spacetraveling.New(cfg, views.New(), spacetraveling.WithLogger(logger.Log))
			defer app.Close()

			stats, err := app.Export(cmd.Context(), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d posts (%d skipped, %d files) to %s\n", stats.Posts, stats.Skipped, stats.Files, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory (overrides OUTPUT_DIR)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the spacetraveling version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spacetraveling %s\n", version)
		},
	}
}

func main() {
	err := newRootCmd().Execute()
	logger.Flush()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
