package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/sbomwalk/pkg/pipeline"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
)

// maxListedPerReason caps each unresolved section so huge dependency
// trees keep the report readable.
const maxListedPerReason = 20

// reasonLabels gives each classification a human-readable heading. The
// order fixes how reasons appear in the report.
var reasonOrder = []resolve.Reason{
	resolve.ReasonNotInRegistry,
	resolve.ReasonNoRepositoryField,
	resolve.ReasonNonGitHubHost,
	resolve.ReasonUnparseablePath,
	resolve.ReasonUnsupportedEcosystem,
	resolve.ReasonParseSkip,
	resolve.ReasonRegistryUnreachable,
}

var reasonLabels = map[resolve.Reason]string{
	resolve.ReasonNotInRegistry:        "Not found in registry",
	resolve.ReasonNoRepositoryField:    "No repository field",
	resolve.ReasonNonGitHubHost:        "Hosted outside GitHub",
	resolve.ReasonUnparseablePath:      "Unparseable repository path",
	resolve.ReasonUnsupportedEcosystem: "Unsupported ecosystem",
	resolve.ReasonParseSkip:            "Skipped during SBOM decomposition",
	resolve.ReasonRegistryUnreachable:  "Registry unreachable",
}

// printSummary writes the run summary to the terminal.
func printSummary(r *pipeline.Result) {
	printNewline()
	printSuccess("Run %s complete", StyleDim.Render(r.RunID))
	printKeyValue("Repository", r.Repository)
	printKeyValue("Packages", fmt.Sprintf("%d (%d skipped in SBOM)", r.TotalPackages, r.ParseSkipped))
	printKeyValue("Resolved", fmt.Sprintf("%d to %d unique repositories (%d duplicates avoided)", r.Resolved, r.UniqueRepos, r.DuplicatesAvoided))
	printKeyValue("Retrieved", fmt.Sprintf("%d (%.0f%%)", r.Retrieved, r.SuccessRate()*100))

	if r.PermanentFailures+r.TransientFailures > 0 {
		printKeyValue("Failures", fmt.Sprintf("%d permanent, %d transient", r.PermanentFailures, r.TransientFailures))
	}
	if r.TransientFailures > 0 {
		printDetail("Transient failures may succeed on a rerun")
	}
}

// renderReport produces the markdown report persisted alongside the run.
func renderReport(r *pipeline.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dependency SBOM run for %s\n\n", r.Repository)
	fmt.Fprintf(&b, "- Run ID: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Elapsed: %.1fs\n\n", r.Elapsed)

	fmt.Fprintf(&b, "## Totals\n\n")
	fmt.Fprintf(&b, "| Stage | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Declared packages | %d |\n", r.TotalPackages)
	fmt.Fprintf(&b, "| Skipped during decomposition | %d |\n", r.ParseSkipped)
	fmt.Fprintf(&b, "| Resolved to GitHub | %d |\n", r.Resolved)
	fmt.Fprintf(&b, "| Unique repositories | %d |\n", r.UniqueRepos)
	fmt.Fprintf(&b, "| Duplicate fetches avoided | %d |\n", r.DuplicatesAvoided)
	fmt.Fprintf(&b, "| SBOMs retrieved | %d |\n", r.Retrieved)
	fmt.Fprintf(&b, "| Permanent fetch failures | %d |\n", r.PermanentFailures)
	fmt.Fprintf(&b, "| Transient fetch failures | %d |\n\n", r.TransientFailures)

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(&b, "## Unresolved packages\n\n")
		byReason := make(map[resolve.Reason][]resolve.Outcome)
		for _, o := range r.Unresolved {
			byReason[o.Reason] = append(byReason[o.Reason], o)
		}
		for _, reason := range reasonOrder {
			outcomes := byReason[reason]
			if len(outcomes) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s (%d)\n\n", reasonLabels[reason], len(outcomes))
			shown := outcomes
			if len(shown) > maxListedPerReason {
				shown = shown[:maxListedPerReason]
			}
			for _, o := range shown {
				fmt.Fprintf(&b, "- %s\n", o.Package.Label())
			}
			if rest := len(outcomes) - len(shown); rest > 0 {
				fmt.Fprintf(&b, "- +%d more\n", rest)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "## Repositories not retrieved\n\n")
		fmt.Fprintf(&b, "| Repository | Branch | Class | Error |\n|---|---|---|---|\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.Repo, f.Branch, f.Class, f.Error)
		}
		b.WriteString("\n")
	}

	if len(r.VersionMapping) > 0 {
		fmt.Fprintf(&b, "## Repository to package mapping\n\n")
		keys := make([]string, 0, len(r.VersionMapping))
		for k := range r.VersionMapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, strings.Join(r.VersionMapping[k], ", "))
		}
		b.WriteString("\n")
	}

	return b.String()
}
