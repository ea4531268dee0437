// Package sbom models SPDX software bills of materials as returned by the
// GitHub dependency-graph API and extracts declared packages from them.
//
// # Overview
//
// A GitHub SBOM response wraps an SPDX 2.3 document:
//
//	{"sbom": {"SPDXID": "SPDXRef-DOCUMENT", "name": "...", "packages": [...]}}
//
// Each package entry may carry a package-URL (purl) external reference such
// as pkg:npm/lodash@4.17.21. [ExtractPackages] walks the package list and
// produces one [Package] per entry with a parseable purl, skipping the SPDX
// document entry and the repository's own self-referential entry.
//
// [ParsePURL] decomposes a purl into ecosystem, name, and version, keeping
// scoped npm names (e.g., @types/node) as a single logical name.
package sbom
