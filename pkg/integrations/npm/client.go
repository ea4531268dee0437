// Package npm provides a client for the npm registry API.
//
// The registry's repository field is loosely typed: packages publish it as a
// plain string, as an object with a url key, or not at all. Older packages
// sometimes use the bare "owner/name" GitHub shorthand. The client returns
// the field after protocol normalization; callers decide what counts as a
// usable repository link.
package npm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

// Client provides access to the npm registry API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", cacheTTL, nil),
		baseURL: "https://registry.npmjs.org",
	}
}

// NewClientWithBaseURL creates a client against a non-default registry
// endpoint. Used by tests and private registry mirrors.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// RepositoryURL returns the package's declared repository URL.
//
// Scoped names ("@types/node") are percent-encoded as a single path segment,
// which is how the registry expects them. Returns [integrations.ErrNotFound]
// if the package doesn't exist and [integrations.ErrNoRepository] if the
// record has no repository field.
func (c *Client) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	var repo string
	err := c.Cached(ctx, name, refresh, &repo, func() error {
		return c.fetch(ctx, name, &repo)
	})
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", fmt.Errorf("%w: npm package %s", integrations.ErrNoRepository, name)
	}
	return repo, nil
}

func (c *Client) fetch(ctx context.Context, name string, repo *string) error {
	var data registryResponse
	url := c.baseURL + "/" + integrations.URLEncode(name)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, name)
		}
		return err
	}

	*repo = integrations.NormalizeRepoURL(extractURL(data.Repository))
	return nil
}

// extractURL handles the three published shapes of the repository field:
// a string, an object with a url key, or absent.
func extractURL(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val["url"].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name       string `json:"name"`
	Repository any    `json:"repository"`
}
