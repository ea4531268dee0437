package sbom

import (
	"net/url"
	"strings"

	"github.com/matzehuels/sbomwalk/pkg/errors"
)

// Identifier is a decomposed package-URL.
//
// For scoped npm packages the Name keeps the scope as part of a single
// logical name (e.g., "@types/node"); it is never split into separate
// namespace and name fields.
type Identifier struct {
	Ecosystem string // Registry namespace (e.g., "npm", "pypi", "cargo")
	Name      string // Package name, scope included for scoped packages
	Version   string // Declared version; empty when the purl carries none
}

// EncodedName returns the package name percent-encoded as a single opaque
// path segment for registry URLs. Both the scope marker and the internal
// separator of scoped names must be escaped ("@types/node" →
// "%40types%2Fnode"); leaving either unescaped makes the registry resolve
// the wrong path and 404.
func (id Identifier) EncodedName() string {
	return url.QueryEscape(id.Name)
}

// ParsePURL decomposes a package-URL of the form
// pkg:ecosystem/[namespace/]name@version.
//
// A missing version yields an empty Version, not an error. A purl without
// the pkg: scheme or without an ecosystem segment returns an
// ErrCodeInvalidPURL error; callers treat that as a non-fatal parse skip.
func ParsePURL(purl string) (Identifier, error) {
	if !strings.HasPrefix(purl, "pkg:") {
		return Identifier{}, errors.New(errors.ErrCodeInvalidPURL, "missing pkg: scheme in %q", purl)
	}

	rest := strings.TrimPrefix(purl, "pkg:")
	ecosystem, rest, found := strings.Cut(rest, "/")
	if !found || ecosystem == "" || rest == "" {
		return Identifier{}, errors.New(errors.ErrCodeInvalidPURL, "missing ecosystem or name in %q", purl)
	}

	// Qualifiers and subpaths are not interesting here.
	rest, _, _ = strings.Cut(rest, "?")
	rest, _, _ = strings.Cut(rest, "#")

	// GitHub emits scoped names percent-encoded (pkg:npm/%40types/node@...).
	if decoded, err := url.PathUnescape(rest); err == nil {
		rest = decoded
	}

	name, version := splitNameVersion(rest)
	if name == "" {
		return Identifier{}, errors.New(errors.ErrCodeInvalidPURL, "empty package name in %q", purl)
	}

	return Identifier{Ecosystem: ecosystem, Name: name, Version: version}, nil
}

// splitNameVersion separates the version suffix from the name. Scoped names
// start with "@", so the version separator is the first "@" after position
// zero, never the scope marker itself.
func splitNameVersion(s string) (name, version string) {
	if strings.HasPrefix(s, "@") {
		if at := strings.Index(s[1:], "@"); at >= 0 {
			return s[:at+1], s[at+2:]
		}
		return s, ""
	}
	if at := strings.LastIndex(s, "@"); at >= 0 {
		return s[:at], s[at+1:]
	}
	return s, ""
}
