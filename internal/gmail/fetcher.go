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

// Package gmail fetches candidate load emails from the Gmail REST API.
// The pipeline only reads: it lists message IDs matching a query, then
// retrieves full messages and flattens them into RawEmail.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// DefaultBaseURL is the Gmail API endpoint.
const DefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// DefaultQuery targets the mail brokers actually send about loads.
const DefaultQuery = `subject:(load OR shipment OR "rate confirmation" OR tender)`

// listResponse is a page of the messages.list response.
type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	NextPageToken string `json:"nextPageToken"`
}

// Fetcher retrieves messages from the Gmail API using an OAuth-bearing
// HTTP client.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewFetcher creates a Gmail message fetcher. baseURL is overridable
// for tests; pass "" for the real API.
func NewFetcher(httpClient *http.Client, baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Search lists messages matching the query (Gmail search syntax) and
// fetches each one, up to limit. A message that fails to fetch is
// logged and skipped; only list-level failures abort the search.
func (f *Fetcher) Search(ctx context.Context, query string, limit int) ([]models.RawEmail, error) {
	if query == "" {
		query = DefaultQuery
	}
	if limit <= 0 {
		limit = 100
	}

	var emails []models.RawEmail
	pageToken := ""
	for len(emails) < limit {
		page, err := f.listPage(ctx, query, limit-len(emails), pageToken)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, stub := range page.Messages {
			if len(emails) >= limit {
				break
			}
			email, err := f.FetchMessage(ctx, stub.ID)
			if err != nil {
				slog.Warn("fetch message failed, skipping",
					"message_id", stub.ID,
					"error", err,
				)
				continue
			}
			if email == nil {
				continue
			}
			emails = append(emails, *email)
		}

		if page.NextPageToken == "" || len(page.Messages) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}

	slog.Debug("gmail search complete", "query", query, "fetched", len(emails))
	return emails, nil
}

// listPage retrieves a single page of matching message IDs.
func (f *Fetcher) listPage(ctx context.Context, query string, max int, pageToken string) (*listResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", max))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	listURL := fmt.Sprintf("%s/users/me/messages?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list messages page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("messages list error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("messages list returned HTTP %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return &page, nil
}

// FetchMessage retrieves one full message. Returns nil without error
// when the message has been deleted since listing.
func (f *Fetcher) FetchMessage(ctx context.Context, messageID string) (*models.RawEmail, error) {
	msgURL := fmt.Sprintf("%s/users/me/messages/%s?format=full", f.baseURL, url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, msgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Warn("message not found (may have been deleted)", "message_id", messageID)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gmail API returned HTTP %d for message %s", resp.StatusCode, messageID)
	}

	email, err := parseMessage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse message %s: %w", messageID, err)
	}
	return email, nil
}
