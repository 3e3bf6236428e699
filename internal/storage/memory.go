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

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// MemoryStore is an in-memory LoadStore used by tests and local
// tooling. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	loads map[string]models.Load
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{loads: make(map[string]models.Load)}
}

// SaveLoad appends a new load, enforcing the same email_id uniqueness
// the Postgres index provides.
func (s *MemoryStore) SaveLoad(_ context.Context, l models.Load) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loads[l.ID]; ok {
		return fmt.Errorf("load %s already exists", l.ID)
	}
	if l.EmailID != "" {
		for _, existing := range s.loads {
			if existing.EmailID == l.EmailID {
				return fmt.Errorf("email %s already materialized as load %s", l.EmailID, existing.ID)
			}
		}
	}
	s.loads[l.ID] = l
	return nil
}

// GetByEmailID returns the load created from an email, or nil.
func (s *MemoryStore) GetByEmailID(_ context.Context, emailID string) (*models.Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loads {
		if l.EmailID != "" && l.EmailID == emailID {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

// SeenEmailIDs lists the email IDs that already produced a load.
func (s *MemoryStore) SeenEmailIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.loads))
	for _, l := range s.loads {
		if l.EmailID != "" {
			seen[l.EmailID] = struct{}{}
		}
	}
	return seen, nil
}

// ListLoads returns all loads, newest first.
func (s *MemoryStore) ListLoads(_ context.Context) ([]models.Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loads := make([]models.Load, 0, len(s.loads))
	for _, l := range s.loads {
		loads = append(loads, l)
	}
	sort.Slice(loads, func(i, j int) bool {
		return loads[i].CreatedAt.After(loads[j].CreatedAt)
	})
	return loads, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
