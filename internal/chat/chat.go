// Package chat synchronizes user profiles with the external chat provider.
//
// The provider powers the messaging side of the app; all this backend does
// is mirror each user's id, display name, and avatar into the provider's
// user directory so conversations show the right identity. The sync is
// best-effort: signup and onboarding must succeed even when the provider
// is down, so callers log failures and move on.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Directory is the provider-facing contract: keep a user's chat profile in
// sync with their account profile.
type Directory interface {
	UpsertUser(ctx context.Context, id, name, image string) error
}

// Client talks to the chat provider's REST user-directory endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client for the given provider endpoint.
// apiKey is sent on every request; the provider rejects calls without it.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// UpsertUser creates or updates the user's profile in the provider's
// directory. Idempotent on the provider side — same id overwrites.
func (c *Client) UpsertUser(ctx context.Context, id, name, image string) error {
	payload := struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Image string `json:"image"`
	}{ID: id, Name: name, Image: image}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("chat: encoding upsert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat: building upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat: calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat: provider returned status %d", resp.StatusCode)
	}

	return nil
}

// Disabled is a no-op Directory used when no provider is configured.
// The server still runs; chat profiles just don't sync.
type Disabled struct{}

func (Disabled) UpsertUser(context.Context, string, string, string) error {
	return nil
}
