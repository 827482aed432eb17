package portalapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/interfaces/portal"
)

// Client implements portal.API over the portal's REST endpoints. Every call
// carries the session bearer token and is bounded by a fixed client-side
// timeout; callers treat any failure as transient and keep last-known state.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ portal.API = (*Client)(nil)

var errBaseURLRequired = errors.New("portalapi: base url is required")

// Options tune the HTTP behavior.
type Options struct {
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// New constructs a REST client for the given base URL and bearer token.
func New(baseURL, token string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
	}, nil
}

// RecentAnnouncements implements portal.API.
func (c *Client) RecentAnnouncements(ctx context.Context, limit int) ([]domain.Announcement, error) {
	var out []domain.Announcement
	if err := c.get(ctx, "/announcements", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentMessages implements portal.API.
func (c *Client) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	var out []domain.Message
	if err := c.get(ctx, "/messages", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type countResponse struct {
	UnreadCount int `json:"unreadCount"`
}

// UnreadMessageCount implements portal.API.
func (c *Client) UnreadMessageCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := c.get(ctx, "/messages/unread/count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// UnreadAnnouncementCount implements portal.API.
func (c *Client) UnreadAnnouncementCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := c.get(ctx, "/announcements/unread/count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("portalapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("portalapi: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("portalapi: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("portalapi: %s: decode response: %w", path, err)
	}
	return nil
}
