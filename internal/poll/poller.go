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

// Package poll runs the ingestion pipeline on a schedule so the
// dashboard picks up new load emails without anyone pressing a button.
// Idempotency in the pipeline makes overlapping poll windows harmless.
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/ingest"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// MailSource lists candidate load emails.
type MailSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.RawEmail, error)
}

// Runner executes one ingestion pass.
type Runner interface {
	Run(ctx context.Context, emails []models.RawEmail, opts ingest.Options) (*models.IngestionResult, error)
}

// Poller periodically fetches new emails and feeds them through the
// ingestion runner.
type Poller struct {
	mail     MailSource
	runner   Runner
	query    string
	limit    int
	interval time.Duration
	opts     ingest.Options
}

// PollerConfig holds dependencies and policy for the poller.
type PollerConfig struct {
	Mail          MailSource
	Runner        Runner
	Query         string
	Limit         int
	Interval      time.Duration
	MinConfidence int
}

// NewPoller creates a poller that ingests at the given interval.
func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		mail:     cfg.Mail,
		runner:   cfg.Runner,
		query:    cfg.Query,
		limit:    cfg.Limit,
		interval: interval,
		opts:     ingest.Options{MinConfidence: cfg.MinConfidence},
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("ingestion poller starting",
		"interval", p.interval,
		"limit", p.limit,
		"min_confidence", p.opts.MinConfidence,
	)

	// Do an initial pass immediately
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ingestion poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs one fetch-and-ingest pass.
func (p *Poller) poll(ctx context.Context) {
	emails, err := p.mail.Search(ctx, p.query, p.limit)
	if err != nil {
		slog.Error("failed to fetch candidate emails", "error", err)
		return
	}

	if len(emails) == 0 {
		slog.Debug("no candidate emails")
		return
	}

	result, err := p.runner.Run(ctx, emails, p.opts)
	if err != nil {
		slog.Error("scheduled ingestion failed", "error", err)
		return
	}

	slog.Info("scheduled ingestion pass",
		"processed", result.Processed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)
}
