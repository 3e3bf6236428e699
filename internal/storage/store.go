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

// Package storage persists Load entities. The ingestion pipeline only
// appends and reads provenance; all later mutation of loads belongs to
// the dispatch screens and goes through the same store.
package storage

import (
	"context"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// LoadStore is the typed repository for loads.
type LoadStore interface {
	// SaveLoad appends a new load.
	SaveLoad(ctx context.Context, load models.Load) error
	// GetByEmailID returns the load materialized from the given email,
	// or nil when none exists.
	GetByEmailID(ctx context.Context, emailID string) (*models.Load, error)
	// SeenEmailIDs lists the email IDs that already produced a load.
	SeenEmailIDs(ctx context.Context) (map[string]struct{}, error)
	// ListLoads returns all loads, newest first.
	ListLoads(ctx context.Context) ([]models.Load, error)
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
