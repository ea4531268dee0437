package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sbomwalk/pkg/cache"
	"github.com/matzehuels/sbomwalk/pkg/integrations/crates"
	"github.com/matzehuels/sbomwalk/pkg/integrations/github"
	"github.com/matzehuels/sbomwalk/pkg/integrations/npm"
	"github.com/matzehuels/sbomwalk/pkg/integrations/packagist"
	"github.com/matzehuels/sbomwalk/pkg/integrations/pypi"
	"github.com/matzehuels/sbomwalk/pkg/integrations/rubygems"
	"github.com/matzehuels/sbomwalk/pkg/pipeline"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
	"github.com/matzehuels/sbomwalk/pkg/store"
)

type fetchFlags struct {
	output   string
	keys     string
	refresh  bool
	attempts int
	noReport bool
}

// newFetchCmd creates the fetch command.
func newFetchCmd(configPath *string) *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch owner/repo",
		Short: "Discover and retrieve the SBOMs of a repository's dependencies",
		Long: `Fetch the repository's SBOM from GitHub's dependency graph, resolve every
declared package to the GitHub repository it is developed in, and retrieve
each discovered repository's own SBOM.

Results land in a timestamped directory: the raw SBOM responses, a version
mapping relating packages to repositories, a machine-readable result.json,
and a markdown report.

Examples:
  sbomwalk fetch expressjs/express
  sbomwalk fetch rails/rails -o ./out --refresh
  sbomwalk fetch psf/requests --keys ~/keys.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), args[0], *configPath, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&flags.keys, "keys", "", "path to a JSON keys file with the GitHub token")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached registry responses")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 0, "retry attempts per SBOM fetch (default from config)")
	cmd.Flags().BoolVar(&flags.noReport, "no-report", false, "skip writing report.md")

	return cmd
}

func runFetch(ctx context.Context, ref, configPath string, flags *fetchFlags) error {
	logger := loggerFromContext(ctx)

	target, err := resolve.ParseRef(ref)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.OutputDir = flags.output
	}
	if flags.attempts > 0 {
		cfg.Attempts = flags.attempts
	}

	token, err := resolveToken(cfg, flags.keys)
	if err != nil {
		return err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	ttl := time.Duration(cfg.CacheTTL)
	resolver := resolve.NewResolver(flags.refresh)
	resolver.Register("npm", npm.NewClient(backend, ttl))
	resolver.Register("pypi", pypi.NewClient(backend, ttl))
	resolver.Register("cargo", crates.NewClient(backend, ttl))
	resolver.Register("gem", rubygems.NewClient(backend, ttl))
	resolver.Register("composer", packagist.NewClient(backend, ttl))

	gh := github.NewClient(token, github.WithAttempts(cfg.Attempts))

	st, err := store.New(cfg.OutputDir, target)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		ResolvePacing: time.Duration(cfg.ResolvePacing),
		FetchPacing:   time.Duration(cfg.FetchPacing),
	}
	p := pipeline.New(gh, resolver, st, opts, logger)

	printInfo("Walking dependencies of %s", StyleHighlight.Render(target.String()))
	track := newProgress(logger)

	result, err := p.Run(ctx, target)
	if err != nil {
		return err
	}
	track.done(fmt.Sprintf("Retrieved %d of %d repositories", result.Retrieved, result.UniqueRepos))

	if !flags.noReport {
		if err := st.SaveReport(renderReport(result)); err != nil {
			return err
		}
	}

	printSummary(result)
	printNewline()
	printFile(st.Dir())
	return nil
}

// newBackend picks the cache backend: Redis when configured, otherwise a
// file cache in the configured or default directory.
func newBackend(cfg Config) (cache.Cache, error) {
	if cfg.RedisURL != "" {
		return cache.NewRedisCache(cfg.RedisURL)
	}
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir)
}
