// Package store persists run artifacts to the filesystem.
//
// Each run gets its own timestamped directory so repeated runs against the
// same repository never clobber each other. All writes go through a
// temp-file rename, so a crash mid-run leaves no truncated JSON behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/resolve"
)

const dependenciesDir = "dependencies"

// Store writes the artifacts of one run under a single directory.
type Store struct {
	dir string
}

// New creates a run directory under baseDir named after the target
// repository and the current time, e.g. "acme_widget_20260830T142501".
func New(baseDir string, repo resolve.Repo) (*Store, error) {
	name := fmt.Sprintf("%s_%s_%s", sanitize(repo.Owner), sanitize(repo.Name), time.Now().Format("20060102T150405"))
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(filepath.Join(dir, dependenciesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the run directory path.
func (s *Store) Dir() string { return s.dir }

// SaveRootSBOM persists the target repository's raw SBOM response.
func (s *Store) SaveRootSBOM(repo resolve.Repo, data []byte) error {
	name := fmt.Sprintf("%s_%s_root.json", sanitize(repo.Owner), sanitize(repo.Name))
	return s.writeFile(name, data)
}

// SaveDependencySBOM persists one dependency repository's raw SBOM
// response, labeled with the branch it was taken from.
func (s *Store) SaveDependencySBOM(repo resolve.Repo, branch string, data []byte) error {
	name := fmt.Sprintf("%s_%s_%s.json", sanitize(repo.Owner), sanitize(repo.Name), sanitize(branch))
	return s.writeFile(filepath.Join(dependenciesDir, name), data)
}

// SaveVersionMapping persists the repo-to-package-versions index.
func (s *Store) SaveVersionMapping(m map[string][]string) error {
	return s.writeJSON("version_mapping.json", m)
}

// SaveResult persists the run result summary.
func (s *Store) SaveResult(v any) error {
	return s.writeJSON("result.json", v)
}

// SaveReport persists the human-readable run report.
func (s *Store) SaveReport(text string) error {
	return s.writeFile("report.md", []byte(text))
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.writeFile(name, data)
}

// writeFile writes atomically: a rename either fully replaces the target
// or leaves it untouched.
func (s *Store) writeFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// sanitize makes a value safe as a filename component. Branch names with
// slashes ("release/v2") are the usual offenders.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
