package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/brunodmn/threadchat/internal/profilecache"
	"go.uber.org/zap"
)

// Client talks to the chat service's REST API. It implements the chat
// package's SnapshotFetcher and ProfileResolver interfaces.
type Client struct {
	base        *url.URL
	token       string
	http        *http.Client
	cache       *profilecache.Cache
	cacheMaxAge time.Duration
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache attaches a profile-lookup cache. Lookups fresher than maxAge
// are served locally, which damps the enrichment fan-out hitting the
// same counterparts on every pass.
func WithCache(cache *profilecache.Cache, maxAge time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheMaxAge = maxAge
	}
}

// New creates a client for the service at baseURL.
func New(baseURL, token string, logger *zap.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	c := &Client{
		base:   base,
		token:  token,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// errEnvelope is the service's error body: {"error": "..."}.
type errEnvelope struct {
	Error string `json:"error"`
}

// StatusError carries a non-2xx response with the service's error
// message, surfaced verbatim to the user.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Conversations fetches the full conversation snapshot.
func (c *Client) Conversations(ctx context.Context) ([]chat.Conversation, error) {
	var convs []chat.Conversation
	if err := c.get(ctx, "/api/messages/conversations", &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Profile looks up a user by id or username. Returns chat.ErrNotFound
// when the service knows no such user.
func (c *Client) Profile(ctx context.Context, idOrUsername string) (*chat.Profile, error) {
	if c.cache != nil {
		p, hit, err := c.cache.Get(idOrUsername, c.cacheMaxAge)
		if err != nil && c.logger != nil {
			c.logger.Warn("profile cache read failed", zap.Error(err))
		}
		if hit {
			return p, nil
		}
	}

	var p chat.Profile
	if err := c.get(ctx, "/api/users/profile/"+url.PathEscape(idOrUsername), &p); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Status == http.StatusNotFound || se.Status == http.StatusBadRequest) {
			// Don't stutter when the server says the same thing as the
			// sentinel ("User not found: user not found").
			if se.Message == "" || strings.EqualFold(se.Message, chat.ErrNotFound.Error()) {
				return nil, chat.ErrNotFound
			}
			return nil, fmt.Errorf("%s: %w", se.Message, chat.ErrNotFound)
		}
		return nil, err
	}
	if p.ID == "" {
		return nil, chat.ErrNotFound
	}

	if c.cache != nil {
		if err := c.cache.Put(&p); err != nil && c.logger != nil {
			c.logger.Warn("profile cache write failed", zap.Error(err))
		}
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope errEnvelope
		_ = json.Unmarshal(body, &envelope)
		return &StatusError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		// Some endpoints report errors as a 200 with an error envelope.
		var envelope errEnvelope
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return &StatusError{Status: resp.StatusCode, Message: envelope.Error}
		}
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
