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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
)

// readScope is the only Gmail scope the pipeline needs: it fetches
// candidate load emails and never writes to the mailbox.
const readScope = "https://www.googleapis.com/auth/gmail.readonly"

// Credentials identifies the OAuth application registered for the
// dashboard's mailbox access.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config builds the oauth2 config for the authorization-code flow.
func (c Credentials) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{readScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// AuthURL returns the consent URL to open in a browser. Offline access
// is requested so the service keeps working from a stored refresh token.
func (c Credentials) AuthURL(state string) string {
	return c.Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (c Credentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// Client returns an HTTP client that refreshes the token as needed.
func (c Credentials) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	return c.Config().Client(ctx, tok)
}

// LoadToken reads a stored OAuth token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes an OAuth token to disk, readable by owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", path, err)
	}
	return nil
}
