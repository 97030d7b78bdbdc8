package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/v0xg/formfill/internal/autofill"
	"github.com/v0xg/formfill/internal/crawler"
	"github.com/v0xg/formfill/internal/server"
	"github.com/v0xg/formfill/internal/watch"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <url>",
		Short: "Keep a page open, re-index it live and accept autofill messages over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return runServe(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr or $FORMFILL_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, url string) error {
	ctx := cmd.Context()

	fmt.Printf("→ Opening %s... ", url)
	browser, err := crawler.Open(ctx, url, browserOptions())
	if err != nil {
		fmt.Println("failed")
		return err
	}
	defer browser.Close()
	fmt.Println("done")

	eng := autofill.New(browser,
		autofill.WithLogger(logger),
		autofill.WithFeedback(cfg.FeedbackOptions()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The page going away ends the session.
		defer cancel()
		return watch.New(browser, eng, watch.Config{
			Debounce:   cfg.Watch.Debounce,
			MaxWait:    cfg.Watch.MaxWait,
			MaxPending: cfg.Watch.MaxPending,
			Logger:     logger,
		}).Run(ctx)
	})
	g.Go(func() error {
		return server.New(eng, logger).ListenAndServe(ctx, cfg.Server.Addr)
	})

	fmt.Printf("✓ Serving on %s (POST /autofill, GET /fields)\n", cfg.Server.Addr)
	if err := g.Wait(); err != nil {
		logger.Error("serve stopped", zap.Error(err))
		return err
	}
	return nil
}
