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

package gmail

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// TestParseMessage_Flat verifies a single-part text/plain message.
func TestParseMessage_Flat(t *testing.T) {
	raw := `{
		"id": "m1",
		"internalDate": "1757846400000",
		"payload": {
			"mimeType": "text/plain",
			"headers": [
				{"name": "Subject", "value": "Load #4521"},
				{"name": "From", "value": "dispatch@broker.test"}
			],
			"body": {"data": "` + b64("Rate: $4,250") + `"}
		}
	}`

	email, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if email.ID != "m1" {
		t.Errorf("expected ID m1, got %q", email.ID)
	}
	if email.Subject != "Load #4521" {
		t.Errorf("unexpected subject %q", email.Subject)
	}
	if email.From != "dispatch@broker.test" {
		t.Errorf("unexpected from %q", email.From)
	}
	if email.Body != "Rate: $4,250" {
		t.Errorf("unexpected body %q", email.Body)
	}

	want := time.UnixMilli(1757846400000).UTC()
	if !email.Date.Equal(want) {
		t.Errorf("expected date %v, got %v", want, email.Date)
	}
}

// TestParseMessage_MultipartPrefersPlain verifies the text/plain part
// wins over text/html in a multipart/alternative message.
func TestParseMessage_MultipartPrefersPlain(t *testing.T) {
	raw := `{
		"id": "m2",
		"payload": {
			"mimeType": "multipart/alternative",
			"headers": [{"name": "subject", "value": "tender"}],
			"parts": [
				{"mimeType": "text/html", "body": {"data": "` + b64("<p>html version</p>") + `"}},
				{"mimeType": "text/plain", "body": {"data": "` + b64("plain version") + `"}}
			]
		}
	}`

	email, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.Body != "plain version" {
		t.Errorf("expected plain part, got %q", email.Body)
	}
	// Header lookup is case-insensitive.
	if email.Subject != "tender" {
		t.Errorf("expected subject from lowercase header, got %q", email.Subject)
	}
}

// TestParseMessage_HTMLFallback verifies html is used when no plain
// part exists.
func TestParseMessage_HTMLFallback(t *testing.T) {
	raw := `{
		"id": "m3",
		"payload": {
			"mimeType": "multipart/alternative",
			"parts": [
				{"mimeType": "text/html", "body": {"data": "` + b64("<p>only html</p>") + `"}}
			]
		}
	}`

	email, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.Body != "<p>only html</p>" {
		t.Errorf("expected html fallback, got %q", email.Body)
	}
}

// TestParseMessage_NestedParts verifies the body is found inside a
// nested multipart tree, the shape Gmail produces for mail with
// attachments.
func TestParseMessage_NestedParts(t *testing.T) {
	raw := `{
		"id": "m4",
		"payload": {
			"mimeType": "multipart/mixed",
			"parts": [
				{
					"mimeType": "multipart/alternative",
					"parts": [
						{"mimeType": "text/plain", "body": {"data": "` + b64("nested body") + `"}}
					]
				},
				{"mimeType": "application/pdf", "body": {}}
			]
		}
	}`

	email, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.Body != "nested body" {
		t.Errorf("expected nested plain part, got %q", email.Body)
	}
}

// TestParseMessage_MissingPieces verifies absent headers and body
// produce empty fields, not errors.
func TestParseMessage_MissingPieces(t *testing.T) {
	email, err := parseMessage(strings.NewReader(`{"id": "m5", "payload": {}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.Subject != "" || email.From != "" || email.Body != "" {
		t.Errorf("expected empty fields, got %+v", email)
	}
	if !email.Date.IsZero() {
		t.Errorf("expected zero date without internalDate, got %v", email.Date)
	}
}

// TestParseMessage_BadJSON verifies malformed responses error.
func TestParseMessage_BadJSON(t *testing.T) {
	if _, err := parseMessage(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected a decode error")
	}
}
