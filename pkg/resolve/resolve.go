// Package resolve maps extracted packages to the GitHub repositories they
// are developed in.
//
// Each package's ecosystem selects a registry [Source]; the source's
// repository field is parsed into a [Repo]. Every package gets exactly one
// [Outcome]: either a repository, or one of the closed set of [Reason]
// values explaining why none could be determined. Classification depends
// only on registry content, never on transport luck: a flaky registry
// yields ReasonRegistryUnreachable, not a guess.
package resolve

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/sbomwalk/pkg/integrations"
	"github.com/matzehuels/sbomwalk/pkg/sbom"
)

// Reason classifies why a package could not be resolved to a GitHub
// repository. The set is closed; reporting code switches over it.
type Reason string

const (
	// ReasonParseSkip marks entries dropped during SBOM decomposition.
	ReasonParseSkip Reason = "parse_skip"

	// ReasonUnsupportedEcosystem marks packages from ecosystems without a
	// registered registry source.
	ReasonUnsupportedEcosystem Reason = "unsupported_ecosystem"

	// ReasonNotInRegistry marks packages the registry has no record of.
	ReasonNotInRegistry Reason = "not_in_registry"

	// ReasonNoRepositoryField marks registry records with no repository
	// link at all.
	ReasonNoRepositoryField Reason = "no_repository_field"

	// ReasonNonGitHubHost marks repository links pointing at a host other
	// than github.com.
	ReasonNonGitHubHost Reason = "non_github_host"

	// ReasonUnparseablePath marks github.com links whose path has no usable
	// owner/name pair.
	ReasonUnparseablePath Reason = "unparseable_path"

	// ReasonRegistryUnreachable marks lookups that failed after retries.
	// Unlike the other reasons it says nothing about the package itself.
	ReasonRegistryUnreachable Reason = "registry_unreachable"
)

// Outcome is the resolution result for a single package. Exactly one of
// Resolved or Reason is meaningful: resolved outcomes carry a Repo, the
// rest carry the classification.
type Outcome struct {
	Package sbom.Package `json:"package"`
	Repo    Repo         `json:"repo,omitempty"`
	Reason  Reason       `json:"reason,omitempty"`
}

// Resolved reports whether the outcome carries a repository.
func (o Outcome) Resolved() bool { return o.Reason == "" }

// Source is a registry lookup for one ecosystem. Implementations return
// the raw repository field for a package name, [integrations.ErrNotFound]
// when the registry has no record, and [integrations.ErrNoRepository] when
// the record has no repository link.
type Source interface {
	RepositoryURL(ctx context.Context, name string, refresh bool) (string, error)
}

// Resolver dispatches packages to registry sources by ecosystem tag.
type Resolver struct {
	sources map[string]Source
	refresh bool
}

// NewResolver creates a Resolver with no registered sources. If refresh is
// true, sources bypass their caches on every lookup.
func NewResolver(refresh bool) *Resolver {
	return &Resolver{sources: make(map[string]Source), refresh: refresh}
}

// Register binds an ecosystem tag (the purl type, e.g. "npm", "cargo") to
// a registry source. Later registrations replace earlier ones.
func (r *Resolver) Register(ecosystem string, src Source) {
	r.sources[ecosystem] = src
}

// Ecosystems returns the registered ecosystem tags.
func (r *Resolver) Ecosystems() []string {
	tags := make([]string, 0, len(r.sources))
	for tag := range r.sources {
		tags = append(tags, tag)
	}
	return tags
}

// Resolve determines the GitHub repository for a single package. The
// returned error is non-nil only when ctx is done; every registry-level
// failure is absorbed into the outcome's Reason.
func (r *Resolver) Resolve(ctx context.Context, pkg sbom.Package) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	src, ok := r.sources[pkg.Ecosystem]
	if !ok {
		return Outcome{Package: pkg, Reason: ReasonUnsupportedEcosystem}, nil
	}

	field, err := src.RepositoryURL(ctx, pkg.Name, r.refresh)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{Package: pkg, Reason: classifyLookupError(err)}, nil
	}

	repo, reason, ok := RepoFromField(field)
	if !ok {
		return Outcome{Package: pkg, Reason: reason}, nil
	}
	return Outcome{Package: pkg, Repo: repo}, nil
}

func classifyLookupError(err error) Reason {
	switch {
	case stderrors.Is(err, integrations.ErrNotFound):
		return ReasonNotInRegistry
	case stderrors.Is(err, integrations.ErrNoRepository):
		return ReasonNoRepositoryField
	default:
		return ReasonRegistryUnreachable
	}
}
