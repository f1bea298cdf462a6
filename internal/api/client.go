// Package api is the REST client for the fitness platform. Every endpoint
// is a plain GET keyed by athlete id; responses arrive in a uniform
// {success, data, message} envelope.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultPageSize bounds the activity pages fetched by the client.
const DefaultPageSize = 20

// TokenProvider yields the bearer token for outgoing requests. The session
// manager satisfies this, so the client always sends the current
// credential without holding its own copy.
type TokenProvider interface {
	Token() (string, bool)
}

// Client talks to the platform API.
type Client struct {
	baseURL string
	tokens  TokenProvider
	http    *http.Client
}

// NewClient builds a client for the given base URL. A zero timeout gets a
// sensible default.
func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetProfile fetches the athlete's profile.
func (c *Client) GetProfile(ctx context.Context, athleteID int64) (*Profile, error) {
	var out Profile
	path := fmt.Sprintf("/athletes/%d/profile", athleteID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats fetches the athlete's aggregate statistics.
func (c *Client) GetStats(ctx context.Context, athleteID int64) (*Stats, error) {
	var out Stats
	path := fmt.Sprintf("/athletes/%d/stats", athleteID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActivities fetches one page of the athlete's activity history, most
// recent first.
func (c *Client) GetActivities(ctx context.Context, athleteID int64, page, perPage int) ([]Activity, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))

	var out []Activity
	path := fmt.Sprintf("/athletes/%d/activities", athleteID)
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLeaderboard fetches the club leaderboard the athlete belongs to.
func (c *Client) GetLeaderboard(ctx context.Context, athleteID int64) ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	path := fmt.Sprintf("/athletes/%d/leaderboard", athleteID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChallenges fetches the challenges visible to the athlete.
func (c *Client) GetChallenges(ctx context.Context, athleteID int64) ([]Challenge, error) {
	var out []Challenge
	path := fmt.Sprintf("/athletes/%d/challenges", athleteID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("platform rejected request: %s", env.Message)
		}
		return fmt.Errorf("platform rejected request")
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}
