package reconcile

import (
	"context"
	"fmt"
	"sync"

	"pagesdeck/internal/forge"
	"pagesdeck/internal/model"
)

// fakeRemote is an in-memory Source and Writer.
type fakeRemote struct {
	mu        sync.Mutex
	repos     []model.Repo
	pages     map[string]*model.Pages
	lookupErr map[string]error
	listErr   error
	writeErr  error
	listHook  func(page int)

	// listErrAfterWrite becomes listErr once a write succeeds.
	listErrAfterWrite error

	listCalls   int
	lookupCalls int
	writes      []string
	configs     []model.BuildConfig
}

func newFakeRemote(n int) *fakeRemote {
	f := &fakeRemote{pages: map[string]*model.Pages{}, lookupErr: map[string]error{}}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("repo-%d", i)
		f.repos = append(f.repos, model.Repo{ID: int64(i + 1), Key: model.RepoKey("octocat", name), Owner: "octocat", Name: name, DefaultBranch: "main"})
	}
	return f
}

func (f *fakeRemote) ListReposPage(ctx context.Context, page, perPage int) ([]model.Repo, error) {
	f.mu.Lock()
	f.listCalls++
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		hook(page)
	}
	f.mu.Lock()
	err := f.listErr
	repos := f.repos
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	start := (page - 1) * perPage
	if start >= len(repos) {
		return nil, nil
	}
	end := start + perPage
	if end > len(repos) {
		end = len(repos)
	}
	return append([]model.Repo(nil), repos[start:end]...), nil
}

func (f *fakeRemote) FetchPages(ctx context.Context, repo model.Repo) (*model.Pages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	if err := f.lookupErr[repo.Key]; err != nil {
		return nil, err
	}
	p, ok := f.pages[repo.Key]
	if !ok {
		return nil, &forge.NotFound{Path: "/repos/" + repo.Key + "/pages"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRemote) CreatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error {
	return f.write("create", repo, &cfg)
}

func (f *fakeRemote) UpdatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error {
	return f.write("update", repo, &cfg)
}

func (f *fakeRemote) DeletePages(ctx context.Context, repo model.Repo) error {
	return f.write("delete", repo, nil)
}

func (f *fakeRemote) write(op string, repo model.Repo, cfg *model.BuildConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, op+" "+repo.Key)
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.listErrAfterWrite != nil {
		f.listErr = f.listErrAfterWrite
	}
	switch op {
	case "delete":
		delete(f.pages, repo.Key)
	default:
		f.configs = append(f.configs, *cfg)
		f.pages[repo.Key] = &model.Pages{BuildMode: cfg.Mode, Branch: cfg.Branch, Path: cfg.Path}
	}
	return nil
}

func (f *fakeRemote) enable(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[key] = &model.Pages{HTMLURL: "https://example.github.io/", BuildMode: model.BuildModeWorkflow}
}

func (f *fakeRemote) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeRemote) counts() (list, lookup, writes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.lookupCalls, len(f.writes)
}

// recordingView records the calls the Driver makes.
type recordingView struct {
	mu     sync.Mutex
	events []string
	last   *model.Collection
	err    error
}

func (v *recordingView) RenderLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "loading")
}

func (v *recordingView) Render(c *model.Collection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "render")
	v.last = c
}

func (v *recordingView) RenderFailure(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "failure")
	v.err = err
}

func (v *recordingView) Events() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.events...)
}
