// Package pipeline orchestrates a full dependency discovery run: fetch the
// target repository's SBOM, resolve every declared package to its GitHub
// repository, deduplicate, then retrieve each discovered repository's SBOM.
//
// Only the initial fetch can fail a run. Everything after it degrades per
// item: an unresolvable package becomes an unresolved outcome, a failed
// repository fetch becomes a recorded failure, and the run carries on.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sbomwalk/pkg/errors"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
	"github.com/matzehuels/sbomwalk/pkg/sbom"
)

// Fetcher is the GitHub-side contract the pipeline needs: SBOM retrieval,
// branch discovery, and cooperative rate-limit pacing.
type Fetcher interface {
	FetchSBOM(ctx context.Context, owner, repo string) ([]byte, error)
	DefaultBranch(ctx context.Context, owner, repo string) string
	PauseForRateLimit(ctx context.Context) error
}

// Store receives the artifacts a run produces.
type Store interface {
	SaveRootSBOM(repo resolve.Repo, data []byte) error
	SaveDependencySBOM(repo resolve.Repo, branch string, data []byte) error
	SaveVersionMapping(m map[string][]string) error
	SaveResult(v any) error
}

// Options tunes a run. The zero value is usable; pacing defaults keep a
// large run inside GitHub's and the registries' good graces.
type Options struct {
	// ResolvePacing is the fixed delay between registry lookups.
	ResolvePacing time.Duration

	// FetchPacing is the fixed delay between repository SBOM fetches.
	FetchPacing time.Duration
}

const (
	defaultResolvePacing = 100 * time.Millisecond
	defaultFetchPacing   = time.Second
)

// Pipeline wires a Fetcher, a Resolver, and a Store into one run.
type Pipeline struct {
	gh       Fetcher
	resolver *resolve.Resolver
	store    Store
	opts     Options
	log      *log.Logger
}

// New creates a Pipeline. A nil logger falls back to the package default.
func New(gh Fetcher, resolver *resolve.Resolver, store Store, opts Options, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if opts.ResolvePacing <= 0 {
		opts.ResolvePacing = defaultResolvePacing
	}
	if opts.FetchPacing <= 0 {
		opts.FetchPacing = defaultFetchPacing
	}
	return &Pipeline{gh: gh, resolver: resolver, store: store, opts: opts, log: logger}
}

// Run executes a full discovery run against target. The returned error is
// non-nil only when the target's own SBOM cannot be fetched or parsed, or
// when ctx is cancelled; per-package and per-repository failures are
// absorbed into the Result.
func (p *Pipeline) Run(ctx context.Context, target resolve.Repo) (*Result, error) {
	start := time.Now()

	p.log.Info("fetching root sbom", "repo", target.String())
	data, err := p.gh.FetchSBOM(ctx, target.Owner, target.Name)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "fetch sbom for %s", target.String())
	}
	if err := p.store.SaveRootSBOM(target, data); err != nil {
		return nil, err
	}

	doc, err := sbom.ParseDocument(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBadResponse, err, "parse sbom for %s", target.String())
	}

	packages, skipped := sbom.ExtractPackages(doc, target.Owner, target.Name)
	p.log.Info("extracted packages", "count", len(packages), "skipped", len(skipped))

	outcomes, err := p.resolveAll(ctx, packages)
	if err != nil {
		return nil, err
	}
	for _, entry := range skipped {
		outcomes = append(outcomes, resolve.Outcome{
			Package: sbom.Package{Name: entry.Name, Version: entry.VersionInfo},
			Reason:  resolve.ReasonParseSkip,
		})
	}

	groups, unresolved := resolve.Partition(outcomes)
	mapping := resolve.VersionMapping(groups)
	if err := p.store.SaveVersionMapping(mapping); err != nil {
		return nil, err
	}
	p.log.Info("resolution complete",
		"packages", len(outcomes), "repos", len(groups), "unresolved", len(unresolved))

	retrieved, failures, err := p.fetchAll(ctx, groups)
	if err != nil {
		return nil, err
	}

	result := newResult(target, outcomes, groups, unresolved, retrieved, failures, mapping, start)
	if err := p.store.SaveResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveAll resolves every package with a fixed pause between registry
// lookups. Cache hits still pause; the pacing bounds the worst case, not
// the average.
func (p *Pipeline) resolveAll(ctx context.Context, packages []sbom.Package) ([]resolve.Outcome, error) {
	outcomes := make([]resolve.Outcome, 0, len(packages))
	for i, pkg := range packages {
		if i > 0 {
			if err := pause(ctx, p.opts.ResolvePacing); err != nil {
				return nil, err
			}
		}
		out, err := p.resolver.Resolve(ctx, pkg)
		if err != nil {
			return nil, err
		}
		if !out.Resolved() {
			p.log.Debug("unresolved", "package", pkg.Label(), "reason", out.Reason)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// fetchAll retrieves every group's SBOM. Failures never stop the loop;
// each one is classified permanent or transient and recorded.
func (p *Pipeline) fetchAll(ctx context.Context, groups []resolve.Group) (int, []FetchFailure, error) {
	var retrieved int
	var failures []FetchFailure

	for i, g := range groups {
		if i > 0 {
			if err := pause(ctx, p.opts.FetchPacing); err != nil {
				return retrieved, failures, err
			}
		}
		if err := p.gh.PauseForRateLimit(ctx); err != nil {
			return retrieved, failures, err
		}

		branch := p.gh.DefaultBranch(ctx, g.Repo.Owner, g.Repo.Name)
		data, err := p.gh.FetchSBOM(ctx, g.Repo.Owner, g.Repo.Name)
		if err != nil {
			if ctx.Err() != nil {
				return retrieved, failures, ctx.Err()
			}
			class := errors.Classification(err)
			p.log.Warn("sbom fetch failed",
				"repo", g.Repo.String(), "branch", branch, "class", class, "err", err)
			failures = append(failures, FetchFailure{
				Repo:   g.Repo.Key(),
				Branch: branch,
				Error:  errors.UserMessage(err),
				Class:  class,
			})
			continue
		}

		if err := p.store.SaveDependencySBOM(g.Repo, branch, data); err != nil {
			return retrieved, failures, err
		}
		retrieved++
		p.log.Info("retrieved sbom", "repo", g.Repo.String(), "branch", branch,
			"progress", formatProgress(i+1, len(groups)))
	}
	return retrieved, failures, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
