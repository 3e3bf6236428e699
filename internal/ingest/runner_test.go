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

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/storage"
)

// --- Mock seen filter ---

type mockSeen struct {
	mu        sync.Mutex
	marked    map[string]bool
	seenCalls int
	markCalls int
	seenErr   error
}

func newMockSeen() *mockSeen {
	return &mockSeen{marked: make(map[string]bool)}
}

func (m *mockSeen) Seen(_ context.Context, emailID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seenCalls++
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.marked[emailID], nil
}

func (m *mockSeen) Mark(_ context.Context, emailID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	m.marked[emailID] = true
	return nil
}

// --- Mock notifier ---

type mockNotifier struct {
	mu    sync.Mutex
	calls int
}

func (m *mockNotifier) LoadsChanged(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Failing store ---

type failingStore struct {
	snapshotErr error
	saveErr     error
	saves       int
}

func (s *failingStore) SaveLoad(_ context.Context, _ models.Load) error {
	s.saves++
	return s.saveErr
}

func (s *failingStore) SeenEmailIDs(_ context.Context) (map[string]struct{}, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return map[string]struct{}{}, nil
}

// --- Fixtures ---

func goodEmail(id string) models.RawEmail {
	return models.RawEmail{
		ID:      id,
		Subject: "Load #" + id + " — ABC Corp, Toronto ON to Vancouver BC, Rate: $4,250",
		Body:    "Pickup: 2026-09-14",
		From:    "dispatch@abccorp.com",
	}
}

func junkEmail(id string) models.RawEmail {
	return models.RawEmail{
		ID:      id,
		Subject: "Re: lunch plans",
		Body:    "Want to grab food at noon?",
		From:    "friend@example.com",
	}
}

func badDateEmail(id string) models.RawEmail {
	return models.RawEmail{
		ID:      id,
		Subject: "Load #" + id + " — Acme Co, Calgary AB to Regina SK, Rate: $2,000",
		Body:    "Pickup: 02/30/2026",
		From:    "dispatch@acme.com",
	}
}

// TestRun_Partition verifies every email in a mixed batch lands in
// exactly one of created, skipped, or errored, and the counters match
// the detail lists.
func TestRun_Partition(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	runner := NewRunner(RunnerConfig{Store: store, Notifier: notifier})

	emails := []models.RawEmail{
		goodEmail("1001"),
		junkEmail("1002"),
		badDateEmail("1003"),
	}

	result, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("expected processed 3, got %d", result.Processed)
	}
	if result.Created != 1 {
		t.Errorf("expected created 1, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Errorf("expected skipped 1, got %d", result.Skipped)
	}
	if result.Errors != 1 {
		t.Errorf("expected errors 1, got %d", result.Errors)
	}

	if len(result.CreatedLoads) != result.Created ||
		len(result.SkippedEmails) != result.Skipped ||
		len(result.ErrorItems) != result.Errors {
		t.Error("detail lists do not match counters")
	}

	created := result.CreatedLoads[0]
	if created.EmailID != "1001" {
		t.Errorf("expected load from email 1001, got %q", created.EmailID)
	}
	if created.LoadNumber != "1001" || created.Rate != 4250 {
		t.Errorf("unexpected load content: %+v", created.Load)
	}
	if created.Status != models.StatusPending {
		t.Errorf("expected pending status, got %q", created.Status)
	}
	if created.DryRun {
		t.Error("created load flagged dry-run on a real run")
	}

	skipped := result.SkippedEmails[0]
	if skipped.EmailID != "1002" || skipped.Reason != models.SkipReasonBelowThreshold {
		t.Errorf("unexpected skip: %+v", skipped)
	}
	if skipped.Confidence != 0 {
		t.Errorf("expected confidence 0 for junk mail, got %d", skipped.Confidence)
	}

	errored := result.ErrorItems[0]
	if errored.EmailID != "1003" || errored.Reason == "" {
		t.Errorf("unexpected error item: %+v", errored)
	}

	// The good load was persisted; the errored one was not.
	loads, err := store.ListLoads(context.Background())
	if err != nil {
		t.Fatalf("list loads: %v", err)
	}
	if len(loads) != 1 || loads[0].EmailID != "1001" {
		t.Errorf("expected exactly the good load persisted, got %+v", loads)
	}

	if notifier.count() != 1 {
		t.Errorf("expected one change notification, got %d", notifier.count())
	}
}

// TestRun_Idempotent verifies re-running the same batch creates nothing
// new and reports the repeats as already processed.
func TestRun_Idempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	runner := NewRunner(RunnerConfig{Store: store})

	emails := []models.RawEmail{goodEmail("2001"), goodEmail("2002")}

	first, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 {
		t.Fatalf("expected first run to create 2, got %d", first.Created)
	}

	second, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.Created != 0 {
		t.Errorf("expected second run to create 0, got %d", second.Created)
	}
	if second.Skipped != 2 {
		t.Errorf("expected second run to skip 2, got %d", second.Skipped)
	}
	for _, s := range second.SkippedEmails {
		if s.Reason != models.SkipReasonAlreadyProcessed {
			t.Errorf("expected already-processed reason, got %q", s.Reason)
		}
	}

	loads, _ := store.ListLoads(context.Background())
	if len(loads) != 2 {
		t.Errorf("expected 2 loads after both runs, got %d", len(loads))
	}
}

// TestRun_DuplicateWithinBatch verifies the same email twice in one
// batch creates only one load.
func TestRun_DuplicateWithinBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	runner := NewRunner(RunnerConfig{Store: store})

	emails := []models.RawEmail{goodEmail("3001"), goodEmail("3001")}

	result, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 || result.Skipped != 1 {
		t.Errorf("expected 1 created / 1 skipped, got %d/%d", result.Created, result.Skipped)
	}
}

// TestRun_DryRun verifies a dry run reports the same loads a real run
// would, flags them, persists nothing, and stays silent.
func TestRun_DryRun(t *testing.T) {
	store := storage.NewMemoryStore()
	seen := newMockSeen()
	notifier := &mockNotifier{}
	runner := NewRunner(RunnerConfig{Store: store, Seen: seen, Notifier: notifier})

	emails := []models.RawEmail{goodEmail("4001"), junkEmail("4002")}

	dry, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if dry.Created != 1 || dry.Skipped != 1 {
		t.Errorf("expected 1 created / 1 skipped, got %d/%d", dry.Created, dry.Skipped)
	}
	if !dry.CreatedLoads[0].DryRun {
		t.Error("expected created load to be flagged dry-run")
	}
	if dry.CreatedLoads[0].LoadNumber != "4001" || dry.CreatedLoads[0].Rate != 4250 {
		t.Errorf("dry run produced different load content: %+v", dry.CreatedLoads[0].Load)
	}

	loads, _ := store.ListLoads(context.Background())
	if len(loads) != 0 {
		t.Errorf("dry run persisted %d loads", len(loads))
	}
	if seen.markCalls != 0 {
		t.Errorf("dry run marked %d emails as seen", seen.markCalls)
	}
	if seen.seenCalls != 0 {
		t.Errorf("dry run consulted the seen filter %d times", seen.seenCalls)
	}
	if notifier.count() != 0 {
		t.Errorf("dry run sent %d notifications", notifier.count())
	}

	// The same batch still creates for real afterwards.
	live, err := runner.Run(context.Background(), emails, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("real run: %v", err)
	}
	if live.Created != 1 {
		t.Errorf("expected real run after dry run to create 1, got %d", live.Created)
	}
	if live.CreatedLoads[0].DryRun {
		t.Error("real run flagged its load dry-run")
	}
}

// TestRun_NoNotificationWithoutCreates verifies the change broadcast
// only fires when something was actually created.
func TestRun_NoNotificationWithoutCreates(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	runner := NewRunner(RunnerConfig{Store: store, Notifier: notifier})

	result, err := runner.Run(context.Background(), []models.RawEmail{junkEmail("5001")}, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("expected nothing created, got %d", result.Created)
	}
	if notifier.count() != 0 {
		t.Errorf("expected no notification, got %d", notifier.count())
	}
}

// TestRun_EmptyBatch verifies an empty batch succeeds with zeroed
// counters and non-nil detail lists.
func TestRun_EmptyBatch(t *testing.T) {
	runner := NewRunner(RunnerConfig{Store: storage.NewMemoryStore()})

	result, err := runner.Run(context.Background(), nil, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 0 || result.Created != 0 || result.Skipped != 0 || result.Errors != 0 {
		t.Errorf("expected zeroed result, got %+v", result)
	}
	if result.CreatedLoads == nil || result.SkippedEmails == nil || result.ErrorItems == nil {
		t.Error("detail lists must be non-nil for JSON consumers")
	}
}

// TestRun_SnapshotFailureAbortsBatch verifies that losing the
// provenance snapshot fails the whole run before any item is touched.
func TestRun_SnapshotFailureAbortsBatch(t *testing.T) {
	store := &failingStore{snapshotErr: errors.New("connection refused")}
	runner := NewRunner(RunnerConfig{Store: store})

	_, err := runner.Run(context.Background(), []models.RawEmail{goodEmail("6001")}, Options{MinConfidence: 70})
	if err == nil {
		t.Fatal("expected batch-level error")
	}
	if store.saves != 0 {
		t.Errorf("expected no saves after snapshot failure, got %d", store.saves)
	}
}

// TestRun_SaveFailureIsPerItem verifies a failing save is recorded as
// an item error, the email is not marked seen, and the batch continues.
func TestRun_SaveFailureIsPerItem(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	seen := newMockSeen()
	runner := NewRunner(RunnerConfig{Store: store, Seen: seen})

	result, err := runner.Run(context.Background(), []models.RawEmail{goodEmail("7001"), goodEmail("7002")}, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if result.Errors != 2 || result.Created != 0 {
		t.Errorf("expected 2 errors / 0 created, got %d/%d", result.Errors, result.Created)
	}
	// Failed saves stay retryable: nothing may be marked seen.
	if seen.markCalls != 0 {
		t.Errorf("expected no seen marks after failed saves, got %d", seen.markCalls)
	}
}

// TestRun_SeenFilterShortCircuits verifies the fast-path filter skips
// an email the store snapshot has not caught up with yet.
func TestRun_SeenFilterShortCircuits(t *testing.T) {
	store := storage.NewMemoryStore()
	seen := newMockSeen()
	seen.marked["8001"] = true
	runner := NewRunner(RunnerConfig{Store: store, Seen: seen})

	result, err := runner.Run(context.Background(), []models.RawEmail{goodEmail("8001")}, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 0 || result.Skipped != 1 {
		t.Errorf("expected filter to skip the email, got created=%d skipped=%d", result.Created, result.Skipped)
	}
	if result.SkippedEmails[0].Reason != models.SkipReasonAlreadyProcessed {
		t.Errorf("unexpected skip reason %q", result.SkippedEmails[0].Reason)
	}
}

// TestRun_SeenFilterFailureDegrades verifies a broken filter falls back
// to the store snapshot instead of failing or skipping the email.
func TestRun_SeenFilterFailureDegrades(t *testing.T) {
	store := storage.NewMemoryStore()
	seen := newMockSeen()
	seen.seenErr = errors.New("redis down")
	runner := NewRunner(RunnerConfig{Store: store, Seen: seen})

	result, err := runner.Run(context.Background(), []models.RawEmail{goodEmail("9001")}, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("expected the email to ingest despite filter failure, got created=%d", result.Created)
	}
}

// TestRun_ThresholdZeroIngestsEverything verifies a zero threshold lets
// even empty extractions through, as long as they materialize.
func TestRun_ThresholdZeroIngestsEverything(t *testing.T) {
	store := storage.NewMemoryStore()
	runner := NewRunner(RunnerConfig{Store: store})

	result, err := runner.Run(context.Background(), []models.RawEmail{junkEmail("9101")}, Options{MinConfidence: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("expected junk email to ingest at threshold 0, got created=%d", result.Created)
	}
	if result.CreatedLoads[0].Rate != 0 {
		t.Errorf("expected default rate 0, got %v", result.CreatedLoads[0].Rate)
	}
}

// TestRunScored_UsesSuppliedScores verifies the pre-scored entry point
// trusts the caller's confidence instead of re-running the extractor.
func TestRunScored_UsesSuppliedScores(t *testing.T) {
	store := storage.NewMemoryStore()
	runner := NewRunner(RunnerConfig{Store: store})

	scored := []models.ScoredEmail{
		{
			Email:      junkEmail("9201"),
			LoadData:   models.ExtractedLoadData{},
			Confidence: 95, // reviewer vouched for it
		},
	}

	result, err := runner.RunScored(context.Background(), scored, Options{MinConfidence: 70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("expected reviewer-approved email to ingest, got created=%d", result.Created)
	}
}
