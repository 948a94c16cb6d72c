package lobbyserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the discovery API. Game servers use it to advertise
// themselves before accepting connections.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login authenticates with basic credentials and returns an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/login", nil)
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.SetBasicAuth(username, password)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return body.AccessToken, nil
}

// CreateGame advertises a game and returns its join id.
func (c *Client) CreateGame(ctx context.Context, token string, game CreateGameRequest) (string, error) {
	payload, err := json.Marshal(game)
	if err != nil {
		return "", fmt.Errorf("encoding create request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling create: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create failed with status %d", resp.StatusCode)
	}

	var body CreateGameResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}
	return body.ID, nil
}

// ResolveGame looks up the server address behind a join id.
func (c *Client) ResolveGame(ctx context.Context, token, id string) (*GameInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/join/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("building join request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling join: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("game %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("join failed with status %d", resp.StatusCode)
	}

	var info GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding join response: %w", err)
	}
	return &info, nil
}
