package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/sbomwalk/pkg/errors"
	"github.com/matzehuels/sbomwalk/pkg/integrations"
	"github.com/matzehuels/sbomwalk/pkg/resolve"
)

// fakeFetcher serves canned SBOM bodies per "owner/name" key and canned
// errors per key.
type fakeFetcher struct {
	sboms    map[string][]byte
	errs     map[string]error
	branches map[string]string
	calls    []string
}

func (f *fakeFetcher) FetchSBOM(ctx context.Context, owner, repo string) ([]byte, error) {
	key := owner + "/" + repo
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	data, ok := f.sboms[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "dependency graph not available")
	}
	return data, nil
}

func (f *fakeFetcher) DefaultBranch(ctx context.Context, owner, repo string) string {
	if b, ok := f.branches[owner+"/"+repo]; ok {
		return b
	}
	return "main"
}

func (f *fakeFetcher) PauseForRateLimit(ctx context.Context) error { return ctx.Err() }

// fakeStore records everything it is handed.
type fakeStore struct {
	root    []byte
	deps    map[string][]byte
	mapping map[string][]string
	result  any
}

func newFakeStore() *fakeStore {
	return &fakeStore{deps: make(map[string][]byte)}
}

func (s *fakeStore) SaveRootSBOM(repo resolve.Repo, data []byte) error {
	s.root = data
	return nil
}

func (s *fakeStore) SaveDependencySBOM(repo resolve.Repo, branch string, data []byte) error {
	s.deps[repo.Key()+"@"+branch] = data
	return nil
}

func (s *fakeStore) SaveVersionMapping(m map[string][]string) error {
	s.mapping = m
	return nil
}

func (s *fakeStore) SaveResult(v any) error {
	s.result = v
	return nil
}

type fakeSource struct {
	fields map[string]string
}

func (f *fakeSource) RepositoryURL(ctx context.Context, name string, refresh bool) (string, error) {
	field, ok := f.fields[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", integrations.ErrNotFound, name)
	}
	return field, nil
}

const rootSBOM = `{
	"sbom": {
		"SPDXID": "SPDXRef-DOCUMENT",
		"spdxVersion": "SPDX-2.3",
		"packages": [
			{"SPDXID": "SPDXRef-DOCUMENT", "name": "com.github.acme/widget"},
			{"SPDXID": "SPDXRef-1", "name": "com.github.acme/widget", "versionInfo": "main"},
			{"SPDXID": "SPDXRef-2", "name": "npm:babel-core", "versionInfo": "7.0.0",
				"externalRefs": [{"referenceType": "purl", "referenceLocator": "pkg:npm/babel-core@7.0.0"}]},
			{"SPDXID": "SPDXRef-3", "name": "npm:babel-parser", "versionInfo": "7.1.0",
				"externalRefs": [{"referenceType": "purl", "referenceLocator": "pkg:npm/babel-parser@7.1.0"}]},
			{"SPDXID": "SPDXRef-4", "name": "npm:ghost", "versionInfo": "1.0.0",
				"externalRefs": [{"referenceType": "purl", "referenceLocator": "pkg:npm/ghost@1.0.0"}]},
			{"SPDXID": "SPDXRef-5", "name": "no-purl-thing", "versionInfo": "0.1.0"}
		]
	}
}`

func testPipeline(t *testing.T, gh *fakeFetcher, store *fakeStore) *Pipeline {
	t.Helper()
	r := resolve.NewResolver(false)
	r.Register("npm", &fakeSource{fields: map[string]string{
		"babel-core":   "https://github.com/babel/babel",
		"babel-parser": "https://github.com/babel/babel",
	}})
	opts := Options{ResolvePacing: time.Microsecond, FetchPacing: time.Microsecond}
	return New(gh, r, store, opts, nil)
}

func TestRun(t *testing.T) {
	gh := &fakeFetcher{
		sboms: map[string][]byte{
			"acme/widget": []byte(rootSBOM),
			"babel/babel": []byte(`{"sbom": {"spdxVersion": "SPDX-2.3"}}`),
		},
		branches: map[string]string{"babel/babel": "main"},
	}
	store := newFakeStore()
	p := testPipeline(t, gh, store)

	result, err := p.Run(context.Background(), resolve.Repo{Owner: "acme", Name: "widget"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.TotalPackages != 3 {
		t.Errorf("TotalPackages = %d, want 3", result.TotalPackages)
	}
	if result.ParseSkipped != 1 {
		t.Errorf("ParseSkipped = %d, want 1", result.ParseSkipped)
	}
	if result.Resolved != 2 {
		t.Errorf("Resolved = %d, want 2", result.Resolved)
	}
	if result.UniqueRepos != 1 {
		t.Errorf("UniqueRepos = %d, want 1 (both babel packages share a repo)", result.UniqueRepos)
	}
	if result.DuplicatesAvoided != 1 {
		t.Errorf("DuplicatesAvoided = %d, want 1 (second babel package reuses the fetch)", result.DuplicatesAvoided)
	}
	if result.Retrieved != 1 {
		t.Errorf("Retrieved = %d, want 1", result.Retrieved)
	}
	if result.UnresolvedCounts[resolve.ReasonNotInRegistry] != 1 {
		t.Errorf("not_in_registry count = %d, want 1", result.UnresolvedCounts[resolve.ReasonNotInRegistry])
	}

	// Conservation: every package is resolved or accounted for.
	if result.Resolved+len(result.Unresolved) != result.TotalPackages+result.ParseSkipped {
		t.Errorf("outcome counts do not conserve: %d + %d != %d + %d",
			result.Resolved, len(result.Unresolved), result.TotalPackages, result.ParseSkipped)
	}

	if store.root == nil {
		t.Error("root sbom not stored")
	}
	if _, ok := store.deps["babel/babel@main"]; !ok {
		t.Errorf("dependency sbom not stored, have %v", store.deps)
	}
	if len(store.mapping["babel/babel"]) != 2 {
		t.Errorf("version mapping = %v", store.mapping)
	}
	if store.result == nil {
		t.Error("result not stored")
	}
}

func TestRun_RootFetchFatal(t *testing.T) {
	gh := &fakeFetcher{} // every fetch 404s
	p := testPipeline(t, gh, newFakeStore())

	_, err := p.Run(context.Background(), resolve.Repo{Owner: "acme", Name: "gone"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRun_RootBodyUnparseable(t *testing.T) {
	gh := &fakeFetcher{sboms: map[string][]byte{"acme/widget": []byte("not json")}}
	p := testPipeline(t, gh, newFakeStore())

	_, err := p.Run(context.Background(), resolve.Repo{Owner: "acme", Name: "widget"})
	if !errors.Is(err, errors.ErrCodeBadResponse) {
		t.Fatalf("expected BAD_RESPONSE, got %v", err)
	}
}

func TestRun_FetchFailuresClassified(t *testing.T) {
	gh := &fakeFetcher{
		sboms: map[string][]byte{"acme/widget": []byte(rootSBOM)},
		errs: map[string]error{
			"babel/babel": errors.New(errors.ErrCodeRetriesExhausted, "gave up"),
		},
	}
	store := newFakeStore()
	p := testPipeline(t, gh, store)

	result, err := p.Run(context.Background(), resolve.Repo{Owner: "acme", Name: "widget"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Retrieved != 0 {
		t.Errorf("Retrieved = %d, want 0", result.Retrieved)
	}
	if result.TransientFailures != 1 || result.PermanentFailures != 0 {
		t.Errorf("failure split = %d transient / %d permanent, want 1/0",
			result.TransientFailures, result.PermanentFailures)
	}
	if len(result.Failures) != 1 || result.Failures[0].Class != errors.ClassTransient {
		t.Errorf("Failures = %+v", result.Failures)
	}
	if got := result.Failures[0].Error; got != "gave up" {
		t.Errorf("failure message = %q, want the plain message without a code prefix", got)
	}

	// A failed fetch never aborts the run; the result is still persisted.
	if store.result == nil {
		t.Error("result not stored after fetch failure")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	gh := &fakeFetcher{sboms: map[string][]byte{"acme/widget": []byte(rootSBOM)}}
	p := testPipeline(t, gh, newFakeStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, resolve.Repo{Owner: "acme", Name: "widget"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSuccessRate(t *testing.T) {
	r := &Result{UniqueRepos: 4, Retrieved: 3}
	if got := r.SuccessRate(); got != 0.75 {
		t.Errorf("SuccessRate() = %v, want 0.75", got)
	}
	empty := &Result{}
	if got := empty.SuccessRate(); got != 1 {
		t.Errorf("SuccessRate() on empty run = %v, want 1", got)
	}
}
