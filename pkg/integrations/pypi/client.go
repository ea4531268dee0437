// Package pypi provides a client for the Python Package Index JSON API.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
)

// Preferred project_urls keys, checked in order. PyPI has no mandatory
// repository field; maintainers label the link however they like, so exact
// key matches come first and a case-insensitive substring pass catches the
// rest ("Source Code (GitHub)" and friends). The substring pass scans keys
// in sorted order so the pick is stable across runs.
var sourceKeys = []string{"Source", "Repository", "Source Code", "Sources", "Code"}

// Client provides access to the PyPI JSON API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// RepositoryURL returns the project's source repository URL, chosen from
// project_urls with the homepage field as a last resort.
func (c *Client) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	var repo string
	err := c.Cached(ctx, name, refresh, &repo, func() error {
		return c.fetch(ctx, name, &repo)
	})
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", fmt.Errorf("%w: pypi project %s", integrations.ErrNoRepository, name)
	}
	return repo, nil
}

func (c *Client) fetch(ctx context.Context, name string, repo *string) error {
	var data projectResponse
	url := c.baseURL + "/" + name + "/json"
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi project %s", err, name)
		}
		return err
	}

	*repo = integrations.NormalizeRepoURL(pickSourceURL(data.Info))
	return nil
}

func pickSourceURL(info projectInfo) string {
	for _, key := range sourceKeys {
		if u := info.ProjectURLs[key]; u != "" {
			return u
		}
	}
	keys := make([]string, 0, len(info.ProjectURLs))
	for key := range info.ProjectURLs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lower := strings.ToLower(key)
		u := info.ProjectURLs[key]
		if u != "" && (strings.Contains(lower, "source") || strings.Contains(lower, "repository") || strings.Contains(lower, "code")) {
			return u
		}
	}
	if u := info.ProjectURLs["Homepage"]; u != "" {
		return u
	}
	return info.HomePage
}

type projectResponse struct {
	Info projectInfo `json:"info"`
}

type projectInfo struct {
	Name        string            `json:"name"`
	HomePage    string            `json:"home_page"`
	ProjectURLs map[string]string `json:"project_urls"`
}
