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

// Package dedup provides a Redis-backed cache of email IDs that have
// already been materialized into loads. It is a fast path in front of
// the Postgres provenance lookup, not the source of truth: entries are
// written only after a successful save and expire after TTL.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long an ingested email ID is remembered. The
	// Postgres provenance index catches anything older.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces ingestion keys in Redis.
	keyPrefix = "tms:ingested:"
)

// Filter tracks which email IDs have already produced a load.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a seen-email filter backed by Redis.
func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// Seen reports whether the email ID was already ingested.
func (f *Filter) Seen(ctx context.Context, emailID string) (bool, error) {
	n, err := f.rdb.Exists(ctx, keyPrefix+emailID).Result()
	if err != nil {
		return false, fmt.Errorf("dedup EXISTS: %w", err)
	}
	return n > 0, nil
}

// Mark records the email ID as ingested. Called only after the load
// was persisted, so a failed save stays retryable.
func (f *Filter) Mark(ctx context.Context, emailID string) error {
	if err := f.rdb.Set(ctx, keyPrefix+emailID, 1, f.ttl).Err(); err != nil {
		return fmt.Errorf("dedup SET: %w", err)
	}
	return nil
}
