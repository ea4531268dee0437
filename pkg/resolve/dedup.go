package resolve

import (
	"github.com/matzehuels/sbomwalk/pkg/sbom"
)

// Group is one deduplicated repository with every package that resolved to
// it. Packages keep insertion order; the first package to reach a
// repository fixes the Repo casing used for API calls.
type Group struct {
	Repo     Repo           `json:"repo"`
	Packages []sbom.Package `json:"packages"`
}

// Partition splits resolution outcomes into repository groups and the
// unresolved remainder. Grouping is by [Repo.Key], so differently cased
// URLs for the same repository land in one group. Groups come back in
// first-seen order, following the order packages appear in the SBOM.
//
// The split conserves outcomes: the sum of group sizes plus the unresolved
// count always equals len(outcomes).
func Partition(outcomes []Outcome) (groups []Group, unresolved []Outcome) {
	byKey := make(map[string]int)
	for _, o := range outcomes {
		if !o.Resolved() {
			unresolved = append(unresolved, o)
			continue
		}
		idx, seen := byKey[o.Repo.Key()]
		if !seen {
			idx = len(groups)
			byKey[o.Repo.Key()] = idx
			groups = append(groups, Group{Repo: o.Repo})
		}
		groups[idx].Packages = append(groups[idx].Packages, o.Package)
	}

	return groups, unresolved
}

// VersionMapping builds the repo-key to package-versions index persisted
// with a run. Each entry records which declared packages and versions
// collapse into one repository fetch. The same package pinned by several
// manifests appears once per distinct label.
func VersionMapping(groups []Group) map[string][]string {
	m := make(map[string][]string, len(groups))
	for _, g := range groups {
		labels := make([]string, 0, len(g.Packages))
		seen := make(map[string]bool, len(g.Packages))
		for _, p := range g.Packages {
			label := p.Label()
			if seen[label] {
				continue
			}
			seen[label] = true
			labels = append(labels, label)
		}
		m[g.Repo.Key()] = labels
	}
	return m
}
