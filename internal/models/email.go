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

// Package models defines the data structures shared across the load
// ingestion pipeline.
package models

import "time"

// RawEmail is an inbound email as fetched from the mail source.
// It is immutable once fetched; the pipeline never mutates it.
type RawEmail struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
}

// Place is a city plus a two-letter province or state code.
type Place struct {
	City     string `json:"city"`
	Province string `json:"province,omitempty"`
}

// ExtractedLoadData is a best-effort partial record pulled out of an
// email. Every field is optional: nil means "not found", which is
// distinct from an empty value. The extractor never sets a field to
// an empty string or zero.
type ExtractedLoadData struct {
	LoadNumber   *string  `json:"load_number,omitempty"`
	Customer     *string  `json:"customer,omitempty"`
	Origin       *Place   `json:"origin,omitempty"`
	Destination  *Place   `json:"destination,omitempty"`
	PickupDate   *string  `json:"pickup_date,omitempty"`
	DeliveryDate *string  `json:"delivery_date,omitempty"`
	DeliveryTime *string  `json:"delivery_time,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	Weight       *string  `json:"weight,omitempty"`
	Commodity    *string  `json:"commodity,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// ScoredEmail pairs an email with its extracted data and the derived
// confidence score. Confidence is always recomputable from LoadData;
// it is carried here so downstream stages don't re-score.
type ScoredEmail struct {
	Email      RawEmail          `json:"email"`
	LoadData   ExtractedLoadData `json:"load_data"`
	Confidence int               `json:"confidence"`
}
