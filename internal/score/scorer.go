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

// Package score assigns a 0-100 confidence score to extracted load
// data. The score is a weighted sum over fixed presence signals; the
// same input always produces the same score, and adding a qualifying
// field never lowers it.
package score

import "github.com/andiyzeiri/absolute-tms-sub000/internal/models"

// Confidence band boundaries. Bands label results for review queues;
// the scoring math itself does not branch on them.
const (
	HighThreshold   = 70
	MediumThreshold = 40
)

// Band names.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// Weights holds the per-signal point values. They are policy, not
// algorithm: deployments may tune them, but the defaults sum to 100 so
// a fully extracted record scores exactly 100.
type Weights struct {
	LoadNumber int
	Customer   int
	Lane       int // both origin and destination present
	Rate       int // positive rate present
	Date       int // at least one of pickup/delivery date present
}

// DefaultWeights returns the stock weight set.
func DefaultWeights() Weights {
	return Weights{
		LoadNumber: 25,
		Customer:   20,
		Lane:       25,
		Rate:       20,
		Date:       10,
	}
}

// Scorer computes confidence scores with a fixed weight set.
type Scorer struct {
	w Weights
}

// NewScorer creates a scorer. Zero-value weights are allowed; the
// corresponding signal then contributes nothing.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score returns the confidence for the extracted record, clamped to
// [0,100]. An empty record scores exactly 0.
func (s *Scorer) Score(d models.ExtractedLoadData) int {
	total := 0
	if d.LoadNumber != nil {
		total += s.w.LoadNumber
	}
	if d.Customer != nil {
		total += s.w.Customer
	}
	if d.Origin != nil && d.Destination != nil {
		total += s.w.Lane
	}
	if d.Rate != nil && *d.Rate > 0 {
		total += s.w.Rate
	}
	if d.PickupDate != nil || d.DeliveryDate != nil {
		total += s.w.Date
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}

// Band maps a confidence score to its review label.
func Band(confidence int) string {
	switch {
	case confidence >= HighThreshold:
		return BandHigh
	case confidence >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}
