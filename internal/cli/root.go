package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the sbomwalk CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (fetch, cache,
// auth), configures logging based on the --verbose flag, and executes the
// command tree. The logger is attached to the context and accessible to
// all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "sbomwalk",
		Short:        "sbomwalk discovers the SBOMs of a repository's dependencies",
		Long:         `sbomwalk walks a GitHub repository's dependency graph: it fetches the repository's SBOM, resolves every declared package back to the GitHub repository it is developed in, and retrieves each of those repositories' SBOMs in turn.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("sbomwalk %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/sbomwalk/config.toml)")

	root.AddCommand(newFetchCmd(&configPath))
	root.AddCommand(newCacheCmd())
	root.AddCommand(newAuthCmd())

	return root.ExecuteContext(ctx)
}
