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

// Package ingest runs the email-to-load pipeline over a batch:
// extract, score, threshold, materialize, persist. Emails are processed
// sequentially, one record at a time; a failure on one email never
// aborts the batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/extract"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/materialize"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/score"
)

// LoadStore is the slice of load persistence the runner needs: append
// new loads and list the email provenance of existing ones.
type LoadStore interface {
	SaveLoad(ctx context.Context, load models.Load) error
	SeenEmailIDs(ctx context.Context) (map[string]struct{}, error)
}

// SeenFilter is an optional fast-path cache of already-ingested email
// IDs, checked before the store snapshot. Failures degrade to the
// store lookup.
type SeenFilter interface {
	Seen(ctx context.Context, emailID string) (bool, error)
	Mark(ctx context.Context, emailID string) error
}

// Notifier broadcasts that the load collection changed. Delivery is
// fire-and-forget; nobody waits for acknowledgment.
type Notifier interface {
	LoadsChanged(ctx context.Context)
}

// Options configures one ingestion pass.
type Options struct {
	// MinConfidence is the 0-100 threshold below which an email is
	// skipped instead of materialized.
	MinConfidence int
	// DryRun builds the would-be loads but persists nothing and sends
	// no change notification.
	DryRun bool
}

// Runner orchestrates the pipeline stages over an email batch.
type Runner struct {
	extractor *extract.Extractor
	scorer    *score.Scorer
	store     LoadStore
	seen      SeenFilter
	notifier  Notifier
}

// RunnerConfig holds the runner's dependencies. Seen and Notifier are
// optional.
type RunnerConfig struct {
	Extractor *extract.Extractor
	Scorer    *score.Scorer
	Store     LoadStore
	Seen      SeenFilter
	Notifier  Notifier
}

// NewRunner creates an ingestion runner. A nil extractor or scorer
// falls back to the defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	ex := cfg.Extractor
	if ex == nil {
		ex = extract.New()
	}
	sc := cfg.Scorer
	if sc == nil {
		sc = score.NewScorer(score.DefaultWeights())
	}
	return &Runner{
		extractor: ex,
		scorer:    sc,
		store:     cfg.Store,
		seen:      cfg.Seen,
		notifier:  cfg.Notifier,
	}
}

// Run processes a batch of raw emails. The provenance snapshot is
// loaded up front; if that fails the whole run fails and no items are
// processed. Everything after that is per-item.
func (r *Runner) Run(ctx context.Context, emails []models.RawEmail, opts Options) (*models.IngestionResult, error) {
	scored := make([]models.ScoredEmail, 0, len(emails))
	for _, email := range emails {
		data := r.extractor.Extract(email)
		scored = append(scored, models.ScoredEmail{
			Email:      email,
			LoadData:   data,
			Confidence: r.scorer.Score(data),
		})
	}
	return r.RunScored(ctx, scored, opts)
}

// RunScored processes emails that already carry extraction and scoring
// results. The manual review flow uses this to ingest a single edited
// email without re-running the extractor.
func (r *Runner) RunScored(ctx context.Context, scored []models.ScoredEmail, opts Options) (*models.IngestionResult, error) {
	start := time.Now()

	seenIDs, err := r.store.SeenEmailIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingested email IDs: %w", err)
	}

	result := &models.IngestionResult{
		CreatedLoads:  []models.CreatedLoad{},
		SkippedEmails: []models.SkippedEmail{},
		ErrorItems:    []models.IngestionError{},
	}

	for _, item := range scored {
		result.Processed++
		r.processOne(ctx, item, opts, seenIDs, result)
	}

	slog.Info("ingestion pass complete",
		"processed", result.Processed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"dry_run", opts.DryRun,
		"elapsed", time.Since(start),
	)

	if !opts.DryRun && result.Created > 0 && r.notifier != nil {
		r.notifier.LoadsChanged(ctx)
	}

	return result, nil
}

// processOne resolves a single scored email into exactly one of
// created, skipped, or errored.
func (r *Runner) processOne(ctx context.Context, item models.ScoredEmail, opts Options, seenIDs map[string]struct{}, result *models.IngestionResult) {
	email := item.Email

	// Idempotency: an email ID that already materialized a load is
	// skipped regardless of confidence. The store snapshot is
	// authoritative; the seen filter only short-circuits.
	duplicate := false
	if _, ok := seenIDs[email.ID]; ok {
		duplicate = true
	} else if r.seen != nil && !opts.DryRun {
		if s, err := r.seen.Seen(ctx, email.ID); err != nil {
			slog.Warn("seen filter check failed, falling back to store snapshot",
				"email_id", email.ID,
				"error", err,
			)
		} else if s {
			duplicate = true
		}
	}
	if duplicate {
		result.Skipped++
		result.SkippedEmails = append(result.SkippedEmails, models.SkippedEmail{
			EmailID:    email.ID,
			Subject:    email.Subject,
			Reason:     models.SkipReasonAlreadyProcessed,
			Confidence: item.Confidence,
		})
		return
	}

	if item.Confidence < opts.MinConfidence {
		result.Skipped++
		result.SkippedEmails = append(result.SkippedEmails, models.SkippedEmail{
			EmailID:    email.ID,
			Subject:    email.Subject,
			Reason:     models.SkipReasonBelowThreshold,
			Confidence: item.Confidence,
		})
		slog.Debug("email below confidence threshold",
			"email_id", email.ID,
			"confidence", item.Confidence,
			"band", score.Band(item.Confidence),
			"min_confidence", opts.MinConfidence,
		)
		return
	}

	load, err := materialize.Materialize(item, nil)
	if err != nil {
		result.Errors++
		result.ErrorItems = append(result.ErrorItems, models.IngestionError{
			EmailID: email.ID,
			Subject: email.Subject,
			Reason:  err.Error(),
		})
		slog.Warn("materialize failed",
			"email_id", email.ID,
			"subject", email.Subject,
			"error", err,
		)
		return
	}

	if opts.DryRun {
		result.Created++
		result.CreatedLoads = append(result.CreatedLoads, models.CreatedLoad{Load: load, DryRun: true})
		return
	}

	if err := r.store.SaveLoad(ctx, load); err != nil {
		result.Errors++
		result.ErrorItems = append(result.ErrorItems, models.IngestionError{
			EmailID: email.ID,
			Subject: email.Subject,
			Reason:  fmt.Sprintf("save load: %v", err),
		})
		slog.Error("save load failed",
			"email_id", email.ID,
			"load_number", load.LoadNumber,
			"error", err,
		)
		return
	}

	// Mark after a successful save so a failed save stays retryable.
	if r.seen != nil {
		if err := r.seen.Mark(ctx, email.ID); err != nil {
			slog.Warn("seen filter mark failed", "email_id", email.ID, "error", err)
		}
	}
	seenIDs[email.ID] = struct{}{}

	result.Created++
	result.CreatedLoads = append(result.CreatedLoads, models.CreatedLoad{Load: load})

	slog.Info("load created from email",
		"email_id", email.ID,
		"load_id", load.ID,
		"load_number", load.LoadNumber,
		"confidence", item.Confidence,
	)
}
