package resolve

import (
	"net/url"
	"strings"

	"github.com/matzehuels/sbomwalk/pkg/errors"
)

// Repo identifies a GitHub repository by owner and name. The original
// casing is kept for display and API calls; Key gives the canonical form
// used for deduplication.
type Repo struct {
	Owner string
	Name  string
}

// Key returns the lowercase "owner/name" identity used for grouping.
// GitHub treats owner and repository names case-insensitively.
func (r Repo) Key() string {
	return strings.ToLower(r.Owner + "/" + r.Name)
}

// String returns "owner/name" with original casing.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// RepoFromField extracts a GitHub repository from a registry's repository
// field. The field is usually a URL, but npm additionally allows the bare
// "owner/name" shorthand. Returns the classification reason when no
// repository can be extracted.
func RepoFromField(field string) (Repo, Reason, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Repo{}, ReasonNoRepositoryField, false
	}

	if isShorthand(field) {
		owner, name, _ := strings.Cut(field, "/")
		return Repo{Owner: owner, Name: strings.TrimSuffix(name, ".git")}, "", true
	}

	return RepoFromURL(field)
}

// RepoFromURL extracts a GitHub repository from a URL. Hosts other than
// github.com classify as ReasonNonGitHubHost; github.com URLs whose path
// does not start with two usable segments classify as
// ReasonUnparseablePath. Extra path segments after owner/name (tree/...,
// blob/...) are tolerated and ignored.
func RepoFromURL(raw string) (Repo, Reason, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Repo{}, ReasonUnparseablePath, false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host != "github.com" {
		return Repo{}, ReasonNonGitHubHost, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, ReasonUnparseablePath, false
	}

	return Repo{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, "", true
}

// isShorthand reports whether s looks like the npm "owner/name" shorthand:
// exactly one slash, no scheme, no host-like dots before the slash.
func isShorthand(s string) bool {
	if strings.Contains(s, "://") || strings.Contains(s, "@") {
		return false
	}
	if strings.Count(s, "/") != 1 {
		return false
	}
	owner, _, _ := strings.Cut(s, "/")
	return owner != "" && !strings.Contains(owner, ".")
}

// ParseRef parses a command-line "owner/repo" reference.
func ParseRef(ref string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || owner == "" || name == "" {
		return Repo{}, errors.New(errors.ErrCodeInvalidInput, "invalid repository reference %q: want owner/repo", ref)
	}
	return Repo{Owner: owner, Name: name}, nil
}
