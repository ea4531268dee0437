// Package crates provides a client for the crates.io registry API.
package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

// Client provides access to the crates.io package registry API.
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
// The client includes a User-Agent header as required by crates.io API policy.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": "sbomwalk/1.0 (https://github.com/matzehuels/sbomwalk)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// RepositoryURL returns the crate's declared repository URL.
// Crate names are case-sensitive and must match the published name exactly.
func (c *Client) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	var repo string
	err := c.Cached(ctx, name, refresh, &repo, func() error {
		return c.fetch(ctx, name, &repo)
	})
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", fmt.Errorf("%w: crate %s", integrations.ErrNoRepository, name)
	}
	return repo, nil
}

func (c *Client) fetch(ctx context.Context, name string, repo *string) error {
	var data crateResponse
	url := c.baseURL + "/crates/" + name
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, name)
		}
		return err
	}

	*repo = integrations.NormalizeRepoURL(data.Crate.Repository)
	return nil
}

type crateResponse struct {
	Crate crateDetails `json:"crate"`
}

type crateDetails struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
}
