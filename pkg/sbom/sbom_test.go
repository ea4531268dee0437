package sbom

import (
	"testing"
)

const sampleSBOM = `{
	"sbom": {
		"SPDXID": "SPDXRef-DOCUMENT",
		"spdxVersion": "SPDX-2.3",
		"name": "com.github.acme/widget",
		"packages": [
			{
				"SPDXID": "SPDXRef-DOCUMENT",
				"name": "com.github.acme/widget",
				"versionInfo": "main"
			},
			{
				"SPDXID": "SPDXRef-com.github.acme-widget",
				"name": "com.github.acme/widget",
				"versionInfo": "main"
			},
			{
				"SPDXID": "SPDXRef-npm-lodash-4.17.21",
				"name": "npm:lodash",
				"versionInfo": "4.17.21",
				"externalRefs": [
					{
						"referenceCategory": "PACKAGE-MANAGER",
						"referenceType": "purl",
						"referenceLocator": "pkg:npm/lodash@4.17.21"
					}
				]
			},
			{
				"SPDXID": "SPDXRef-npm-types-node",
				"name": "npm:@types/node",
				"versionInfo": "14.0.0",
				"externalRefs": [
					{
						"referenceCategory": "PACKAGE-MANAGER",
						"referenceType": "purl",
						"referenceLocator": "pkg:npm/%40types%2Fnode@14.0.0"
					}
				]
			},
			{
				"SPDXID": "SPDXRef-no-purl",
				"name": "mystery-package",
				"versionInfo": "1.0.0"
			},
			{
				"SPDXID": "SPDXRef-bad-purl",
				"name": "broken",
				"versionInfo": "1.0.0",
				"externalRefs": [
					{
						"referenceCategory": "PACKAGE-MANAGER",
						"referenceType": "purl",
						"referenceLocator": "notapurl"
					}
				]
			}
		]
	}
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleSBOM))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	if doc.SBOM.SPDXVersion != "SPDX-2.3" {
		t.Errorf("SPDXVersion = %q, want %q", doc.SBOM.SPDXVersion, "SPDX-2.3")
	}
	if len(doc.SBOM.Packages) != 6 {
		t.Errorf("len(Packages) = %d, want 6", len(doc.SBOM.Packages))
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	if _, err := ParseDocument([]byte("{not json")); err == nil {
		t.Fatal("ParseDocument() expected error for malformed input")
	}
}

func TestExtractPackages(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleSBOM))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}

	packages, skipped := ExtractPackages(doc, "acme", "widget")
	if len(packages) != 2 {
		t.Fatalf("len(packages) = %d, want 2", len(packages))
	}
	if len(skipped) != 2 {
		t.Fatalf("len(skipped) = %d, want 2 (missing purl and malformed purl)", len(skipped))
	}

	lodash := packages[0]
	if lodash.Ecosystem != "npm" || lodash.Name != "lodash" || lodash.Version != "4.17.21" {
		t.Errorf("unexpected first package: %+v", lodash)
	}

	scoped := packages[1]
	if scoped.Name != "@types/node" {
		t.Errorf("scoped Name = %q, want %q", scoped.Name, "@types/node")
	}

	// The document entry, the self entry, the purl-less entry, and the
	// malformed purl entry must all be absent.
	for _, p := range packages {
		if p.Name == "com.github.acme/widget" || p.Name == "mystery-package" || p.Name == "broken" {
			t.Errorf("excluded entry leaked through: %+v", p)
		}
	}
}

func TestExtractPackages_SelfReferenceCaseInsensitive(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleSBOM))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}

	packages, _ := ExtractPackages(doc, "Acme", "Widget")
	if len(packages) != 2 {
		t.Errorf("len(packages) = %d, want 2", len(packages))
	}
}

func TestExtractPackages_Empty(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"sbom": {"SPDXID": "SPDXRef-DOCUMENT", "spdxVersion": "SPDX-2.3"}}`))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	packages, skipped := ExtractPackages(doc, "acme", "widget")
	if len(packages) != 0 || len(skipped) != 0 {
		t.Errorf("got %d packages, %d skipped, want none", len(packages), len(skipped))
	}
}

func TestPackageLabel(t *testing.T) {
	p := Package{Ecosystem: "npm", Name: "lodash", Version: "4.17.21"}
	if got := p.Label(); got != "lodash (npm) @ 4.17.21" {
		t.Errorf("Label() = %q", got)
	}
	noVersion := Package{Ecosystem: "pypi", Name: "requests"}
	if got := noVersion.Label(); got != "requests (pypi)" {
		t.Errorf("Label() = %q", got)
	}
}
