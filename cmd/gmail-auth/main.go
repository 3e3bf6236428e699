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

// Absolute TMS — Gmail Authorization Command
//
// One-time OAuth bootstrap: prints the consent URL, exchanges the
// pasted authorization code for a token, and stores it where the
// ingestion service expects it.
//
// Usage:
//
//	go run ./cmd/gmail-auth/
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/config"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/gmail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load configuration: %v\n", err)
		os.Exit(1)
	}

	creds := gmail.Credentials{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RedirectURL:  cfg.Gmail.RedirectURL,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: gmail.client_id and gmail.client_secret must be configured")
		os.Exit(1)
	}

	fmt.Println("Open this URL in a browser and authorize mailbox access:")
	fmt.Println()
	fmt.Println("  " + creds.AuthURL("tms-ingest"))
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read authorization code: %v\n", err)
		os.Exit(1)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: empty authorization code")
		os.Exit(1)
	}

	tok, err := creds.Exchange(context.Background(), code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := gmail.SaveToken(cfg.Gmail.TokenPath, tok); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token saved to %s\n", cfg.Gmail.TokenPath)
}
