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

// Absolute TMS — One-shot Ingestion Command
//
// Fetches candidate load emails and runs a single ingestion pass.
// Useful for seeding new deployments and for previewing what a batch
// would create before letting it write anything.
//
// Usage:
//
//	go run ./cmd/ingest/ [--query "subject:load"] [--limit 100] [--min-confidence 70] [--dry-run]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/config"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/dedup"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/gmail"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/ingest"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/notify"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/storage"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	queryFlag := flag.String("query", "", "Gmail search query (default: configured query)")
	limitFlag := flag.Int("limit", 0, "Maximum emails to fetch (default: configured batch size)")
	minConfidenceFlag := flag.Int("min-confidence", -1, "Confidence threshold 0-100 (default: configured)")
	dryRunFlag := flag.Bool("dry-run", false, "Build loads but persist nothing")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	query := *queryFlag
	if query == "" {
		query = cfg.Query
	}
	limit := *limitFlag
	if limit <= 0 {
		limit = cfg.BatchSize
	}
	minConfidence := *minConfidenceFlag
	if minConfidence < 0 {
		minConfidence = cfg.MinConfidence
	}
	if minConfidence > 100 {
		slog.Error("min-confidence must be in [0,100]", "value", minConfidence)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	store, err := storage.NewPostgresStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise load store", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis (skipped in dry runs: nothing is written) ---
	var seen ingest.SeenFilter
	var notifier ingest.Notifier
	if !*dryRunFlag {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()

		rn := notify.NewRedisNotifier(rdb, cfg.NotifyChannel)
		if err := rn.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		seen = dedup.NewFilter(rdb)
		notifier = rn
	}

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

	// --- Fetch Batch ---
	emails, err := fetcher.Search(ctx, query, limit)
	if err != nil {
		slog.Error("failed to fetch candidate emails", "error", err)
		os.Exit(1)
	}
	slog.Info("fetched candidate emails", "count", len(emails))

	// --- Run Ingestion ---
	runner := ingest.NewRunner(ingest.RunnerConfig{
		Store:    store,
		Seen:     seen,
		Notifier: notifier,
	})

	result, err := runner.Run(ctx, emails, ingest.Options{
		MinConfidence: minConfidence,
		DryRun:        *dryRunFlag,
	})
	if err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	slog.Info("ingestion complete",
		"processed", result.Processed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"dry_run", *dryRunFlag,
	)

	for _, cl := range result.CreatedLoads {
		slog.Info("created load",
			"load_id", cl.ID,
			"load_number", cl.LoadNumber,
			"customer", cl.Customer,
			"origin", cl.Origin,
			"destination", cl.Destination,
			"rate", cl.Rate,
			"dry_run", cl.DryRun,
		)
	}
	for _, se := range result.SkippedEmails {
		slog.Info("skipped email",
			"subject", se.Subject,
			"reason", se.Reason,
			"confidence", se.Confidence,
		)
	}
	for _, ie := range result.ErrorItems {
		slog.Warn("errored email",
			"subject", ie.Subject,
			"reason", ie.Reason,
		)
	}
}
