// Package rubygems provides a client for the RubyGems.org API.
package rubygems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

// Client provides access to the RubyGems.org API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "gem:", cacheTTL, nil),
		baseURL: "https://rubygems.org/api/v1",
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// RepositoryURL returns the gem's source repository URL, preferring
// source_code_uri with homepage_uri as fallback.
func (c *Client) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	var repo string
	err := c.Cached(ctx, name, refresh, &repo, func() error {
		return c.fetch(ctx, name, &repo)
	})
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", fmt.Errorf("%w: gem %s", integrations.ErrNoRepository, name)
	}
	return repo, nil
}

func (c *Client) fetch(ctx context.Context, name string, repo *string) error {
	var data gemResponse
	url := c.baseURL + "/gems/" + name + ".json"
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gem %s", err, name)
		}
		return err
	}

	raw := data.SourceCodeURI
	if raw == "" {
		raw = data.HomepageURI
	}
	*repo = integrations.NormalizeRepoURL(raw)
	return nil
}

type gemResponse struct {
	Name          string `json:"name"`
	SourceCodeURI string `json:"source_code_uri"`
	HomepageURI   string `json:"homepage_uri"`
}
