package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoGithubProfile is returned when GitHub answers anything but 200 for a
// username's repo listing.
var ErrNoGithubProfile = errors.New("no github profile found")

// GithubClient fetches a user's most recent public repositories as raw JSON.
type GithubClient interface {
	Repos(ctx context.Context, username string) ([]byte, error)
}

// HTTPGithubClient calls the GitHub REST API.
type HTTPGithubClient struct {
	client       *http.Client
	base         string
	clientID     string
	clientSecret string
}

func NewHTTPGithubClient(cfg Config) *HTTPGithubClient {
	return &HTTPGithubClient{
		client:       &http.Client{Timeout: 10 * time.Second},
		base:         "https://api.github.com",
		clientID:     cfg.GithubClientID,
		clientSecret: cfg.GithubClientSecret,
	}
}

// Repos returns the five most recently created repos of username.
func (c *HTTPGithubClient) Repos(ctx context.Context, username string) ([]byte, error) {
	q := url.Values{}
	q.Set("per_page", "5")
	q.Set("sort", "created:asc")
	if c.clientID != "" {
		q.Set("client_id", c.clientID)
		q.Set("client_secret", c.clientSecret)
	}
	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", c.base, url.PathEscape(username), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devhub-api")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoGithubProfile
	}
	// GitHub caps per_page at 100; 1MB is generous for five repos.
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// CachedGithubClient caches upstream responses in redis. A nil redis client
// degrades to pass-through; cache errors are treated as misses.
type CachedGithubClient struct {
	next  GithubClient
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedGithubClient(next GithubClient, rdb *redis.Client, cfg Config) *CachedGithubClient {
	return &CachedGithubClient{
		next:  next,
		redis: rdb,
		ttl:   time.Duration(cfg.GithubCacheTTLSeconds) * time.Second,
	}
}

func githubCacheKey(username string) string {
	return "github:repos:" + username
}

func (c *CachedGithubClient) Repos(ctx context.Context, username string) ([]byte, error) {
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, githubCacheKey(username)).Bytes(); err == nil {
			return cached, nil
		}
	}

	body, err := c.next.Repos(ctx, username)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		_ = c.redis.Set(ctx, githubCacheKey(username), body, c.ttl).Err()
	}
	return body, nil
}
