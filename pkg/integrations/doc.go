// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains low-level API clients for looking up where a
// published package is developed. Each registry has its own subpackage:
//
//   - [npm]: Node Package Manager
//   - [pypi]: Python Package Index
//   - [crates]: Rust crates.io
//   - [rubygems]: Ruby gems
//   - [packagist]: PHP Composer packages
//   - [github]: GitHub API for SBOM and branch retrieval
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := npm.NewClient(backend, 24*time.Hour)  // cache backend + TTL
//	repoURL, err := client.RepositoryURL(ctx, "lodash", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry for transient failures
//   - Response caching through the pluggable [cache.Cache] backends
//   - API-specific parsing and URL normalization
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all registry
// clients. [ErrNotFound] and [ErrNoRepository] are the sentinels callers
// inspect to classify a lookup outcome; anything else is a network or
// decoding failure.
//
// # Adding a New Registry
//
// To add support for a new package registry:
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement a Client with a RepositoryURL method
//  4. Use [NewClient] for HTTP with caching
//  5. Wire into [resolve] as a new ecosystem
//
// [npm]: github.com/matzehuels/sbomwalk/pkg/integrations/npm
// [pypi]: github.com/matzehuels/sbomwalk/pkg/integrations/pypi
// [crates]: github.com/matzehuels/sbomwalk/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/sbomwalk/pkg/integrations/rubygems
// [packagist]: github.com/matzehuels/sbomwalk/pkg/integrations/packagist
// [github]: github.com/matzehuels/sbomwalk/pkg/integrations/github
// [cache.Cache]: github.com/matzehuels/sbomwalk/pkg/cache.Cache
// [resolve]: github.com/matzehuels/sbomwalk/pkg/resolve
package integrations
