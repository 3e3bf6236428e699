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

// Package extract pulls structured load attributes out of free-form
// email text. Extraction is best effort: a field that cannot be
// confidently located is left unset, never set to an empty value, and
// extraction itself never fails.
package extract

import "github.com/andiyzeiri/absolute-tms-sub000/internal/models"

// Rule is a single named extraction step. Rules receive the subject on
// its own plus the combined subject+body text, and fill only fields
// that are still unset.
type Rule struct {
	Name  string
	Apply func(subject, text string, out *models.ExtractedLoadData)
}

// Extractor applies an ordered rule set to an email.
type Extractor struct {
	rules []Rule
}

// New creates an extractor with the default rule set.
func New() *Extractor {
	return &Extractor{rules: defaultRules()}
}

// Rules exposes the rule set so callers can audit what runs, in order.
func (e *Extractor) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Extract scans the email and returns whatever load attributes the
// rules could find. The input is never mutated and no I/O happens here.
func (e *Extractor) Extract(email models.RawEmail) models.ExtractedLoadData {
	var out models.ExtractedLoadData
	text := email.Subject + "\n" + email.Body
	for _, r := range e.rules {
		r.Apply(email.Subject, text, &out)
	}
	return out
}
