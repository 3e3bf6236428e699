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

import "time"

// StatusPending is the initial status of every load created by the
// ingestion pipeline. Dispatch owns all later status transitions.
const StatusPending = "pending"

// Load is the canonical load entity consumed by the rest of the
// dashboard. EmailID, EmailSubject and EmailFrom link back to the
// originating email and are never overridable.
type Load struct {
	ID           string    `json:"id"`
	LoadNumber   string    `json:"load_number,omitempty"`
	Customer     string    `json:"customer,omitempty"`
	Origin       string    `json:"origin,omitempty"`
	Destination  string    `json:"destination,omitempty"`
	Driver       string    `json:"driver,omitempty"`
	Vehicle      string    `json:"vehicle,omitempty"`
	Status       string    `json:"status"`
	PickupDate   string    `json:"pickup_date,omitempty"`
	DeliveryDate string    `json:"delivery_date,omitempty"`
	DeliveryTime string    `json:"delivery_time,omitempty"`
	Rate         float64   `json:"rate"`
	Weight       string    `json:"weight,omitempty"`
	Commodity    string    `json:"commodity,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	EmailID      string    `json:"email_id,omitempty"`
	EmailSubject string    `json:"email_subject,omitempty"`
	EmailFrom    string    `json:"email_from,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
