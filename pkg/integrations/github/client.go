// Package github provides the GitHub API client used for SBOM and branch
// retrieval.
//
// Unlike the registry clients, this client carries its own retry machinery:
// GitHub's dependency-graph endpoint throttles aggressively, and the
// correct wait is dictated by response headers (Retry-After, the
// X-RateLimit window) rather than by a fixed backoff schedule. Failures
// split into permanent ones, which never retry, and transient ones, which
// retry with header-aware waits until the attempt budget runs out.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/errors"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultBranch   = "main"
	defaultAttempts = 3
	apiVersion      = "2022-11-28"
)

// Client provides access to the GitHub REST API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string

	attempts int
	backoff  time.Duration
	sleep    func(context.Context, time.Duration) error

	limits *rateState

	mu       sync.Mutex
	branches map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithAttempts sets the per-request attempt budget (minimum 1).
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the base delay for retries when no rate-limit header
// dictates a wait. Each retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient creates a GitHub API client. An empty token means
// unauthenticated requests, which hit much lower rate limits; callers
// should treat a missing token as a configuration problem.
func NewClient(token string, opts ...Option) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": apiVersion,
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	c := &Client{
		http:     integrations.NewHTTPClient(),
		baseURL:  defaultBaseURL,
		headers:  headers,
		attempts: defaultAttempts,
		backoff:  time.Second,
		sleep:    sleepCtx,
		limits:   newRateState(),
		branches: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// PauseForRateLimit blocks until the client is clear to issue the next
// request. Callers invoke it between retrieval targets so a run drains
// the rate-limit window gracefully instead of failing mid-batch.
func (c *Client) PauseForRateLimit(ctx context.Context) error {
	if d := c.limits.waitNeeded(time.Now()); d > 0 {
		return c.sleep(ctx, d)
	}
	return nil
}

// DefaultBranch returns the repository's default branch. The first lookup
// per repository hits the API; the result is cached for the lifetime of
// the client. Lookup failures fall back to "main" rather than failing the
// retrieval, since the branch only labels stored artifacts.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) string {
	key := strings.ToLower(owner + "/" + repo)

	c.mu.Lock()
	if branch, ok := c.branches[key]; ok {
		c.mu.Unlock()
		return branch
	}
	c.mu.Unlock()

	branch := defaultBranch
	var data struct {
		DefaultBranch string `json:"default_branch"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.getJSON(ctx, url, &data); err == nil && data.DefaultBranch != "" {
		branch = data.DefaultBranch
	}

	c.mu.Lock()
	c.branches[key] = branch
	c.mu.Unlock()
	return branch
}

// FetchSBOM retrieves the repository's dependency-graph SBOM as raw JSON.
//
// Permanent failures (missing dependency graph, private or deleted
// repository) return immediately with ErrCodeNotFound or ErrCodeForbidden.
// Transient failures (throttling, 5xx, network errors) retry with
// header-aware waits; when the attempt budget is exhausted the last
// failure is wrapped in ErrCodeRetriesExhausted, which still classifies
// as transient.
func (c *Client) FetchSBOM(ctx context.Context, owner, repo string) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/dependency-graph/sbom", c.baseURL, owner, repo)

	delay := c.backoff
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if err := c.PauseForRateLimit(ctx); err != nil {
			return nil, err
		}

		data, retryIn, err := c.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		if errors.Classification(err) == errors.ClassPermanent {
			return nil, err
		}
		lastErr = err

		if attempt < c.attempts-1 {
			wait := retryIn
			if wait <= 0 {
				wait = delay
				delay *= 2
			}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	return nil, errors.Wrap(errors.ErrCodeRetriesExhausted, lastErr,
		"sbom fetch for %s/%s failed after %d attempts", owner, repo, c.attempts)
}

// fetchOnce performs one SBOM request. retryIn is non-zero only for
// throttled responses that dictate their own wait.
func (c *Client) fetchOnce(ctx context.Context, url string) (data []byte, retryIn time.Duration, err error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeNetwork, err, "github request failed")
	}
	defer resp.Body.Close()
	c.limits.observe(resp.Header)

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeNetwork, err, "read github response")
		}
		if !json.Valid(body) {
			return nil, 0, errors.New(errors.ErrCodeBadResponse, "sbom response is not valid JSON")
		}
		return body, 0, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, errors.New(errors.ErrCodeNotFound, "dependency graph not available")

	case resp.StatusCode == http.StatusForbidden && !throttled(resp):
		return nil, 0, errors.New(errors.ErrCodeForbidden, "access denied (status 403)")

	case resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && throttled(resp)):
		wait := retryDelay(resp.Header, time.Now(), c.backoff)
		return nil, wait, errors.New(errors.ErrCodeRateLimited, "rate limited (status %d)", resp.StatusCode)

	case resp.StatusCode >= 500:
		return nil, 0, errors.New(errors.ErrCodeNetwork, "github server error (status %d)", resp.StatusCode)

	default:
		return nil, 0, errors.New(errors.ErrCodeBadResponse, "unexpected status %d", resp.StatusCode)
	}
}

// throttled distinguishes a rate-limit 403 from a permissions 403: GitHub
// signals the former with an exhausted primary window or a Retry-After.
func throttled(resp *http.Response) bool {
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "github request failed")
	}
	defer resp.Body.Close()
	c.limits.observe(resp.Header)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return errors.New(errors.ErrCodeNotFound, "github resource not found")
		}
		return errors.New(errors.ErrCodeNetwork, "github status %d", resp.StatusCode)
	}
	if err := decodeJSON(resp.Body, v); err != nil {
		return errors.Wrap(errors.ErrCodeBadResponse, err, "decode github response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req)
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
