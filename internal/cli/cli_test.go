package cli

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"pagesdeck/internal/forge"
	"pagesdeck/internal/model"
)

func parseBuildFlags(t *testing.T, args ...string) (*buildFlags, *pflag.FlagSet) {
	t.Helper()
	f := &buildFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse(args))
	return f, fs
}

var repo = model.Repo{Key: "octocat/site", Owner: "octocat", Name: "site", DefaultBranch: "main"}

func TestBuildConfigDefaults(t *testing.T) {
	f, fs := parseBuildFlags(t)
	cfg, err := f.buildConfig(fs, model.Item{Repo: repo})
	require.NoError(t, err)
	require.Equal(t, model.BuildConfig{Mode: model.BuildModeWorkflow}, cfg)

	f, fs = parseBuildFlags(t, "--mode", "legacy")
	cfg, err = f.buildConfig(fs, model.Item{Repo: repo})
	require.NoError(t, err)
	require.Equal(t, model.BuildConfig{Mode: model.BuildModeLegacy, Branch: "main", Path: "/"}, cfg)

	f, fs = parseBuildFlags(t, "--branch", "gh-pages")
	cfg, err = f.buildConfig(fs, model.Item{Repo: repo})
	require.NoError(t, err)
	require.Equal(t, model.BuildConfig{Mode: model.BuildModeLegacy, Branch: "gh-pages", Path: "/"}, cfg)
}

func TestBuildConfigKeepsCurrentSource(t *testing.T) {
	item := model.Item{Repo: repo, Publication: model.Publication{
		State: model.PublicationEnabled,
		Pages: &model.Pages{BuildMode: model.BuildModeLegacy, Branch: "gh-pages", Path: "/docs"},
	}}

	f, fs := parseBuildFlags(t, "--path", "/")
	cfg, err := f.buildConfig(fs, item)
	require.NoError(t, err)
	require.Equal(t, model.BuildConfig{Mode: model.BuildModeLegacy, Branch: "gh-pages", Path: "/"}, cfg)

	f, fs = parseBuildFlags(t, "-m", "actions")
	cfg, err = f.buildConfig(fs, item)
	require.NoError(t, err)
	require.Equal(t, model.BuildConfig{Mode: model.BuildModeWorkflow}, cfg)
}

func TestBuildConfigRejects(t *testing.T) {
	f, fs := parseBuildFlags(t, "--mode", "jekyll")
	_, err := f.buildConfig(fs, model.Item{Repo: repo})
	require.Error(t, err)

	f, fs = parseBuildFlags(t, "--branch", "main", "--path", "/site")
	_, err = f.buildConfig(fs, model.Item{Repo: repo})
	require.ErrorContains(t, err, "invalid path")
}

func TestDescribeAuthFailure(t *testing.T) {
	msg := describe(&forge.AuthFailure{Status: 401, Reason: "Bad credentials"})
	require.Contains(t, msg, "authentication failed, run `pagesdeck login`")
	require.Equal(t, "GET /user/repos: 502 Bad Gateway",
		describe(&forge.RemoteFailure{Method: "GET", Path: "/user/repos", Status: 502, Reason: "Bad Gateway"}))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]model.Item{
		{Repo: repo, Publication: model.Publication{State: model.PublicationEnabled, Pages: &model.Pages{
			HTMLURL: "https://octocat.github.io/site/", BuildMode: model.BuildModeWorkflow,
		}}},
		{Repo: model.Repo{Key: "octocat/tools", Private: true}, Publication: model.Publication{State: model.PublicationAbsent}},
	})
	require.Contains(t, out, "REPOSITORY")
	require.Contains(t, out, "https://octocat.github.io/site/")
	require.Contains(t, out, "github actions")
	require.Contains(t, out, "private")
	require.Contains(t, out, "absent")
}

func TestListEntries(t *testing.T) {
	entries := toListEntries([]model.Item{
		{Repo: repo, Publication: model.Publication{State: model.PublicationUnknown, Err: &forge.RemoteFailure{Method: "GET", Path: "/repos/octocat/site/pages", Status: 500, Reason: "boom"}}},
	})
	require.Len(t, entries, 1)
	require.Equal(t, "unknown", entries[0].Pages)
	require.Equal(t, "public", entries[0].Visibility)
	require.Contains(t, entries[0].Error, "500 boom")
}
