// Package packagist provides a client for the Packagist (Composer) API.
//
// Packagist's p2 metadata endpoint returns the package's versions in
// minified form; the source repository is the same across versions, so the
// first entry carrying a source URL wins.
package packagist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

// Client provides access to the Packagist p2 metadata API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Packagist client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "packagist:", cacheTTL, nil),
		baseURL: "https://repo.packagist.org/p2",
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// RepositoryURL returns the package's source repository URL. The name must
// be the full "vendor/package" Composer name.
func (c *Client) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	var repo string
	err := c.Cached(ctx, name, refresh, &repo, func() error {
		return c.fetch(ctx, name, &repo)
	})
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", fmt.Errorf("%w: composer package %s", integrations.ErrNoRepository, name)
	}
	return repo, nil
}

func (c *Client) fetch(ctx context.Context, name string, repo *string) error {
	var data metadataResponse
	url := c.baseURL + "/" + name + ".json"
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: composer package %s", err, name)
		}
		return err
	}

	for _, versions := range data.Packages {
		for _, v := range versions {
			if v.Source.URL != "" {
				*repo = integrations.NormalizeRepoURL(v.Source.URL)
				return nil
			}
		}
	}
	return nil
}

type metadataResponse struct {
	Packages map[string][]versionEntry `json:"packages"`
}

type versionEntry struct {
	Source sourceInfo `json:"source"`
}

type sourceInfo struct {
	URL string `json:"url"`
}
