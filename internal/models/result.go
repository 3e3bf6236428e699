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

package models

// Skip reasons reported in IngestionResult. These are outcomes, not
// errors; the caller surfaces them for manual review.
const (
	SkipReasonBelowThreshold   = "below confidence threshold"
	SkipReasonAlreadyProcessed = "already processed"
)

// CreatedLoad is a load produced by one ingestion pass. DryRun marks
// entries that were built but deliberately not persisted.
type CreatedLoad struct {
	Load
	DryRun bool `json:"dry_run,omitempty"`
}

// SkippedEmail records an email that was examined but produced no load.
type SkippedEmail struct {
	EmailID    string `json:"email_id"`
	Subject    string `json:"subject"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// IngestionError records a per-item failure. The batch continues past
// these; they are surfaced for manual follow-up, never retried.
type IngestionError struct {
	EmailID string `json:"email_id"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// IngestionResult summarises one ingestion pass over an email batch.
type IngestionResult struct {
	Processed     int              `json:"processed"`
	Created       int              `json:"created"`
	Skipped       int              `json:"skipped"`
	Errors        int              `json:"errors"`
	CreatedLoads  []CreatedLoad    `json:"created_loads"`
	SkippedEmails []SkippedEmail   `json:"skipped_emails"`
	ErrorItems    []IngestionError `json:"error_items"`
}
