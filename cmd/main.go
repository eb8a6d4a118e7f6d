// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0x0BSoD/noticeboard/internal/api"
	"github.com/0x0BSoD/noticeboard/internal/bot"
	"github.com/0x0BSoD/noticeboard/internal/bot/middleware"
	"github.com/0x0BSoD/noticeboard/internal/botkit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, &app{}, os.Args[1:])
	cancel()

	if err != nil {
		os.Exit(1)
	}
}

// execute runs the command line and releases everything the app opened,
// whether or not the command failed.
func execute(ctx context.Context, a *app, args []string) error {
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "noticeboard",
		Short:        "Collects notices from organization websites and serves them",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newCrawlCmd(a),
		newRegisterCmd(a),
		newSearchCmd(a),
		newMigrateCmd(a),
	)

	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic crawler, the HTTP API and the admin bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}
	if err := a.seedKeywords(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(a.svc, a.log), a.registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.fetcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.log.Info("fetcher stopped")
		return nil
	})

	g.Go(func() error {
		a.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.log.Info("http server stopped")
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if a.botAPI != nil {
		newsBot := botkit.New(a.botAPI, a.log)
		adminChatID := a.cfg.TelegramAdminChatID

		newsBot.RegisterCmdView("addsection", middleware.AdminsOnly(adminChatID, bot.ViewCmdAddSection(a.svc)))
		newsBot.RegisterCmdView("scrapenow", middleware.AdminsOnly(adminChatID, bot.ViewCmdScrapeNow(a.svc)))
		newsBot.RegisterCmdView("notices", middleware.AdminsOnly(adminChatID, bot.ViewCmdNotices(a.svc)))

		g.Go(func() error {
			if err := newsBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("bot stopped")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.log.Error("noticeboard stopped with error", zap.Error(err))
		return err
	}

	return nil
}
