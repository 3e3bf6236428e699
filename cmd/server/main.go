// Copyright (c) 2026 Andi Zeiri
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Absolute TMS — Load Ingestion Service
//
// Entry point for the ingestion service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to PostgreSQL and Redis
//  3. Builds the Gmail client from stored OAuth credentials
//  4. Wires the extract → score → materialize → persist pipeline
//  5. Runs the periodic ingestion poller (when configured)
//  6. Serves the dashboard-facing ingestion API
//  7. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/api"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/config"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/dedup"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/gmail"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/ingest"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/notify"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/poll"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/storage"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting load ingestion service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"min_confidence", cfg.MinConfidence,
		"batch_size", cfg.BatchSize,
		"poll_interval", cfg.PollInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	store, err := storage.NewPostgresStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise load store", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	notifier := notify.NewRedisNotifier(rdb, cfg.NotifyChannel)
	if err := notifier.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Seen-email Filter ---
	filter := dedup.NewFilter(rdb)

	// --- Gmail Client ---
	creds := gmail.Credentials{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RedirectURL:  cfg.Gmail.RedirectURL,
	}
	tok, err := gmail.LoadToken(cfg.Gmail.TokenPath)
	if err != nil {
		slog.Error("failed to load Gmail token — run ./cmd/gmail-auth first", "error", err)
		os.Exit(1)
	}
	fetcher := gmail.NewFetcher(creds.Client(ctx, tok), "")

	// --- Ingestion Runner ---
	runner := ingest.NewRunner(ingest.RunnerConfig{
		Store:    store,
		Seen:     filter,
		Notifier: notifier,
	})

	// --- Periodic Poller ---
	if cfg.PollInterval > 0 {
		poller := poll.NewPoller(poll.PollerConfig{
			Mail:          fetcher,
			Runner:        runner,
			Query:         cfg.Query,
			Limit:         cfg.BatchSize,
			Interval:      cfg.PollInterval,
			MinConfidence: cfg.MinConfidence,
		})
		go poller.Run(ctx)
	} else {
		slog.Info("periodic ingestion disabled — set ingestion.poll_interval to enable")
	}

	// --- API Server ---
	handler := api.NewHandler(fetcher, runner, store, notifier.Ping, api.Defaults{
		MinConfidence: cfg.MinConfidence,
		BatchSize:     cfg.BatchSize,
		Query:         cfg.Query,
	})
	ready, err := api.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start API server", "error", err)
		os.Exit(1)
	}
	<-ready
	slog.Info("ingestion service ready", "port", cfg.Port)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	slog.Info("received shutdown signal", "signal", sig)
	cancel() // Stop the poller and the API server

	rdb.Close()
	pgPool.Close()

	slog.Info("ingestion service stopped")
}
