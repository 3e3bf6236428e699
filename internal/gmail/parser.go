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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// gmailMessage represents the relevant fields of a messages.get
// response in format=full.
type gmailMessage struct {
	ID           string      `json:"id"`
	InternalDate string      `json:"internalDate"` // epoch milliseconds as string
	Payload      messagePart `json:"payload"`
}

// messagePart is one node of the MIME tree Gmail returns.
type messagePart struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []messagePart `json:"parts"`
}

// parseMessage converts a messages.get response into a RawEmail.
func parseMessage(body io.Reader) (*models.RawEmail, error) {
	var msg gmailMessage
	if err := json.NewDecoder(body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode gmail message: %w", err)
	}

	email := &models.RawEmail{
		ID:      msg.ID,
		Subject: headerValue(msg.Payload, "Subject"),
		From:    headerValue(msg.Payload, "From"),
		Body:    bestBody(msg.Payload),
	}

	if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
		email.Date = time.UnixMilli(ms).UTC()
	}

	return email, nil
}

// headerValue finds a header on the top-level part, case-insensitively.
func headerValue(p messagePart, name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// bestBody walks the MIME tree and returns the first text/plain part,
// falling back to text/html when no plain part exists. Gmail encodes
// part data as unpadded URL-safe base64.
func bestBody(p messagePart) string {
	if text := findPart(p, "text/plain"); text != "" {
		return text
	}
	return findPart(p, "text/html")
}

func findPart(p messagePart, mimeType string) string {
	if strings.EqualFold(p.MimeType, mimeType) && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, child := range p.Parts {
		if text := findPart(child, mimeType); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
