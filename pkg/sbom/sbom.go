package sbom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// documentSPDXID marks the SPDX document entry inside the package list.
const documentSPDXID = "SPDXRef-DOCUMENT"

// Document is the GitHub dependency-graph SBOM response.
type Document struct {
	SBOM SPDX `json:"sbom"`
}

// SPDX is the SPDX 2.3 document carried inside a GitHub SBOM response.
// Only the fields the pipeline reads are modeled; the raw response is
// preserved separately for persistence.
type SPDX struct {
	SPDXID            string      `json:"SPDXID"`
	SPDXVersion       string      `json:"spdxVersion"`
	Name              string      `json:"name"`
	DocumentNamespace string      `json:"documentNamespace"`
	Packages          []SPDXEntry `json:"packages"`
}

// SPDXEntry is one package entry from the SPDX package list.
type SPDXEntry struct {
	SPDXID       string        `json:"SPDXID"`
	Name         string        `json:"name"`
	VersionInfo  string        `json:"versionInfo"`
	ExternalRefs []ExternalRef `json:"externalRefs"`
}

// ExternalRef is an SPDX external reference; purl references carry
// referenceType "purl" and the encoded identifier in referenceLocator.
type ExternalRef struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

// PURL returns the entry's package-URL, or "" if the entry has none.
func (e SPDXEntry) PURL() string {
	for _, ref := range e.ExternalRefs {
		if ref.ReferenceType == "purl" {
			return ref.ReferenceLocator
		}
	}
	return ""
}

// Package is one declared dependency extracted from an SBOM.
// Name and Ecosystem are always non-empty; Version may be empty for
// ecosystems that declare unversioned entries. Packages are immutable
// once extracted.
type Package struct {
	Ecosystem string `json:"ecosystem"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	PURL      string `json:"purl"`
}

// ParseDocument decodes a raw GitHub SBOM response.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode sbom document: %w", err)
	}
	return &doc, nil
}

// ExtractPackages returns the declared packages of doc, excluding the SPDX
// document entry and the subject repository's own entry (GitHub lists the
// repository itself as "com.github.{owner}/{repo}"; counting it would put
// every total off by one against dependency-graph views of the same repo).
//
// Entries without a purl and entries whose purl fails to decompose cannot
// be looked up anywhere; they come back in skipped so callers can account
// for them. An absent package list yields empty results, not an error.
func ExtractPackages(doc *Document, owner, repo string) (packages []Package, skipped []SPDXEntry) {
	self := strings.ToLower(fmt.Sprintf("com.github.%s/%s", owner, repo))

	for _, entry := range doc.SBOM.Packages {
		if entry.SPDXID == documentSPDXID {
			continue
		}
		if strings.ToLower(entry.Name) == self {
			continue
		}

		purl := entry.PURL()
		if purl == "" {
			skipped = append(skipped, entry)
			continue
		}

		id, err := ParsePURL(purl)
		if err != nil {
			skipped = append(skipped, entry)
			continue
		}

		version := entry.VersionInfo
		if version == "" {
			version = id.Version
		}

		packages = append(packages, Package{
			Ecosystem: id.Ecosystem,
			Name:      id.Name,
			Version:   version,
			PURL:      purl,
		})
	}
	return packages, skipped
}

// Identifier returns the package's decomposed identifier. The purl was
// validated during extraction, so failure here means the Package was built
// by hand; callers get the zero Identifier in that case.
func (p Package) Identifier() Identifier {
	id, _ := ParsePURL(p.PURL)
	return id
}

// Label formats the package for log and report lines.
func (p Package) Label() string {
	if p.Version == "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.Ecosystem)
	}
	return fmt.Sprintf("%s (%s) @ %s", p.Name, p.Ecosystem, p.Version)
}
