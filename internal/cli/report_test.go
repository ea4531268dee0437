package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/errors"
	"github.com/matzehuels/sbomwalk/pkg/pipeline"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
	"github.com/matzehuels/sbomwalk/pkg/sbom"
)

func TestRenderReport(t *testing.T) {
	r := &pipeline.Result{
		RunID:             "run-1",
		Repository:        "acme/widget",
		StartedAt:         time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Elapsed:           42.5,
		TotalPackages:     3,
		ParseSkipped:      1,
		Resolved:          2,
		UniqueRepos:       1,
		DuplicatesAvoided: 1,
		Retrieved:         0,
		UnresolvedCounts: map[resolve.Reason]int{
			resolve.ReasonNotInRegistry: 1,
			resolve.ReasonParseSkip:     1,
		},
		Unresolved: []resolve.Outcome{
			{Package: sbom.Package{Ecosystem: "npm", Name: "ghost", Version: "1.0.0"}, Reason: resolve.ReasonNotInRegistry},
			{Package: sbom.Package{Name: "no-purl-thing"}, Reason: resolve.ReasonParseSkip},
		},
		TransientFailures: 1,
		Failures: []pipeline.FetchFailure{
			{Repo: "babel/babel", Branch: "main", Error: "gave up", Class: errors.ClassTransient},
		},
		VersionMapping: map[string][]string{
			"babel/babel": {"babel-core (npm) @ 7.0.0"},
		},
	}

	report := renderReport(r)

	for _, want := range []string{
		"# Dependency SBOM run for acme/widget",
		"`run-1`",
		"| Declared packages | 3 |",
		"| Duplicate fetches avoided | 1 |",
		"### Not found in registry (1)",
		"ghost (npm) @ 1.0.0",
		"### Skipped during SBOM decomposition (1)",
		"## Repositories not retrieved",
		"| babel/babel | main | transient | gave up |",
		"**babel/babel**: babel-core (npm) @ 7.0.0",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderReport_CapsUnresolvedList(t *testing.T) {
	r := &pipeline.Result{
		RunID:      "run-3",
		Repository: "acme/widget",
	}
	for i := 0; i < maxListedPerReason+5; i++ {
		r.Unresolved = append(r.Unresolved, resolve.Outcome{
			Package: sbom.Package{Ecosystem: "npm", Name: fmt.Sprintf("pkg-%02d", i)},
			Reason:  resolve.ReasonNotInRegistry,
		})
	}

	report := renderReport(r)

	if !strings.Contains(report, "- +5 more") {
		t.Error("report missing overflow marker for capped list")
	}
	if strings.Contains(report, "pkg-24") {
		t.Error("entries past the cap should not be listed")
	}
	if !strings.Contains(report, fmt.Sprintf("pkg-%02d", maxListedPerReason-1)) {
		t.Error("entries up to the cap should be listed")
	}
}

func TestRenderReport_CleanRun(t *testing.T) {
	r := &pipeline.Result{
		RunID:      "run-2",
		Repository: "acme/widget",
	}
	report := renderReport(r)
	if strings.Contains(report, "## Unresolved packages") {
		t.Error("clean run should have no unresolved section")
	}
	if strings.Contains(report, "## Repositories not retrieved") {
		t.Error("clean run should have no failures section")
	}
}
