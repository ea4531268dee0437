package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/sbomwalk/pkg/errors"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
)

// FetchFailure records one repository whose SBOM could not be retrieved.
// Class separates failures worth retrying on a later run from ones that
// will never succeed (no dependency graph, private repository).
type FetchFailure struct {
	Repo   string       `json:"repo"`
	Branch string       `json:"branch"`
	Error  string       `json:"error"`
	Class  errors.Class `json:"class"`
}

// Result is the full accounting of one run. Counts are conserved:
// Resolved + len(Unresolved) equals TotalPackages + ParseSkipped, and
// Retrieved + PermanentFailures + TransientFailures equals UniqueRepos.
type Result struct {
	RunID      string    `json:"run_id"`
	Repository string    `json:"repository"`
	StartedAt  time.Time `json:"started_at"`
	Elapsed    float64   `json:"elapsed_seconds"`

	TotalPackages int `json:"total_packages"`
	ParseSkipped  int `json:"parse_skipped"`
	Resolved      int `json:"resolved"`
	UniqueRepos   int `json:"unique_repos"`

	// DuplicatesAvoided counts resolved packages that shared a repository
	// with an earlier package, so no extra fetch was made for them.
	DuplicatesAvoided int `json:"duplicates_avoided"`

	UnresolvedCounts map[resolve.Reason]int `json:"unresolved_counts"`
	Unresolved       []resolve.Outcome      `json:"unresolved"`

	Retrieved         int            `json:"retrieved"`
	PermanentFailures int            `json:"permanent_failures"`
	TransientFailures int            `json:"transient_failures"`
	Failures          []FetchFailure `json:"failures,omitempty"`

	VersionMapping map[string][]string `json:"version_mapping"`
}

func newResult(
	target resolve.Repo,
	outcomes []resolve.Outcome,
	groups []resolve.Group,
	unresolved []resolve.Outcome,
	retrieved int,
	failures []FetchFailure,
	mapping map[string][]string,
	start time.Time,
) *Result {
	counts := make(map[resolve.Reason]int)
	var parseSkipped int
	for _, o := range unresolved {
		counts[o.Reason]++
		if o.Reason == resolve.ReasonParseSkip {
			parseSkipped++
		}
	}

	var permanent, transient int
	for _, f := range failures {
		if f.Class == errors.ClassPermanent {
			permanent++
		} else {
			transient++
		}
	}

	return &Result{
		RunID:             uuid.NewString(),
		Repository:        target.String(),
		StartedAt:         start,
		Elapsed:           time.Since(start).Seconds(),
		TotalPackages:     len(outcomes) - parseSkipped,
		ParseSkipped:      parseSkipped,
		Resolved:          len(outcomes) - len(unresolved),
		UniqueRepos:       len(groups),
		DuplicatesAvoided: len(outcomes) - len(unresolved) - len(groups),
		UnresolvedCounts:  counts,
		Unresolved:        unresolved,
		Retrieved:         retrieved,
		PermanentFailures: permanent,
		TransientFailures: transient,
		Failures:          failures,
		VersionMapping:    mapping,
	}
}

// SuccessRate returns the share of unique repositories whose SBOM was
// retrieved, as a value in [0, 1]. A run with no repositories counts as
// fully successful.
func (r *Result) SuccessRate() float64 {
	if r.UniqueRepos == 0 {
		return 1
	}
	return float64(r.Retrieved) / float64(r.UniqueRepos)
}

func formatProgress(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}
