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

// Package materialize converts a scored email into the canonical Load
// entity. User overrides from the review screen win field by field over
// extracted values; provenance always comes from the source email.
package materialize

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// Overrides carries field edits from the review UI. A nil field means
// "keep the extracted value". There is deliberately no way to override
// the provenance fields.
type Overrides struct {
	LoadNumber   *string
	Customer     *string
	Origin       *string
	Destination  *string
	Driver       *string
	Vehicle      *string
	PickupDate   *string
	DeliveryDate *string
	DeliveryTime *string
	Rate         *float64
	Weight       *string
	Commodity    *string
	Notes        *string
}

// dateFormats are tried in order when normalizing extracted dates.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"Jan 2",
}

// Materialize builds a candidate Load from a scored email plus optional
// overrides. It fails only when a supplied date cannot be parsed; the
// caller records that as a per-item error.
func Materialize(scored models.ScoredEmail, ov *Overrides) (models.Load, error) {
	if ov == nil {
		ov = &Overrides{}
	}
	d := scored.LoadData

	pickupDate, err := resolveDate(ov.PickupDate, d.PickupDate)
	if err != nil {
		return models.Load{}, fmt.Errorf("parse pickup date: %w", err)
	}
	deliveryDate, err := resolveDate(ov.DeliveryDate, d.DeliveryDate)
	if err != nil {
		return models.Load{}, fmt.Errorf("parse delivery date: %w", err)
	}

	load := models.Load{
		ID:           uuid.New().String(),
		LoadNumber:   resolveString(ov.LoadNumber, d.LoadNumber),
		Customer:     resolveString(ov.Customer, d.Customer),
		Origin:       resolvePlace(ov.Origin, d.Origin),
		Destination:  resolvePlace(ov.Destination, d.Destination),
		Driver:       deref(ov.Driver),
		Vehicle:      deref(ov.Vehicle),
		Status:       models.StatusPending,
		PickupDate:   pickupDate,
		DeliveryDate: deliveryDate,
		DeliveryTime: resolveString(ov.DeliveryTime, d.DeliveryTime),
		Rate:         resolveRate(ov.Rate, d.Rate),
		Weight:       resolveString(ov.Weight, d.Weight),
		Commodity:    resolveString(ov.Commodity, d.Commodity),
		Notes:        resolveString(ov.Notes, d.Notes),
		EmailID:      scored.Email.ID,
		EmailSubject: scored.Email.Subject,
		EmailFrom:    scored.Email.From,
		CreatedAt:    time.Now().UTC(),
	}
	return load, nil
}

// resolveDate picks override over extracted, then normalizes to
// YYYY-MM-DD. Absent on both sides yields "".
func resolveDate(override, extracted *string) (string, error) {
	raw := ""
	if override != nil {
		raw = *override
	} else if extracted != nil {
		raw = *extracted
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	return normalizeDate(raw)
}

// normalizeDate parses a date string against the known broker formats
// and renders it as YYYY-MM-DD. Year-less forms assume the current year.
func normalizeDate(raw string) (string, error) {
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(time.Now().UTC().Year(), 0, 0)
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

func resolveString(override, extracted *string) string {
	if override != nil {
		return *override
	}
	if extracted != nil {
		return *extracted
	}
	return ""
}

// resolveRate picks override over extracted and defaults to 0 when
// neither supplies a usable non-negative number.
func resolveRate(override, extracted *float64) float64 {
	if override != nil && *override >= 0 {
		return *override
	}
	if extracted != nil && *extracted >= 0 {
		return *extracted
	}
	return 0
}

func resolvePlace(override *string, extracted *models.Place) string {
	if override != nil {
		return *override
	}
	if extracted == nil {
		return ""
	}
	if extracted.Province == "" {
		return extracted.City
	}
	return extracted.City + ", " + extracted.Province
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
