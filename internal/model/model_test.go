package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBuildMode(t *testing.T) {
	for in, want := range map[string]BuildMode{
		"workflow":      BuildModeWorkflow,
		"Actions":       BuildModeWorkflow,
		"legacy":        BuildModeLegacy,
		" branch ":      BuildModeLegacy,
		"legacy-branch": BuildModeLegacy,
	} {
		got, err := ParseBuildMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseBuildMode("jekyll")
	require.Error(t, err)
}

func TestBuildConfigValidate(t *testing.T) {
	require.NoError(t, BuildConfig{Mode: BuildModeWorkflow}.Validate())
	require.NoError(t, BuildConfig{Mode: BuildModeLegacy, Branch: "gh-pages", Path: "/"}.Validate())

	err := BuildConfig{Mode: BuildModeLegacy, Path: "/"}.Validate()
	require.EqualError(t, err, "branch is required for legacy builds")
	err = BuildConfig{Mode: BuildModeLegacy, Branch: "main"}.Validate()
	require.EqualError(t, err, "path is required for legacy builds")
	require.Error(t, BuildConfig{}.Validate())
	require.Error(t, BuildConfig{Mode: "static"}.Validate())
}

func TestPagesSource(t *testing.T) {
	require.Equal(t, "", Pages{BuildMode: BuildModeWorkflow}.Source())
	require.Equal(t, "main / /docs", Pages{Branch: "main", Path: "/docs"}.Source())
	require.Equal(t, "gh-pages / /", Pages{Branch: "gh-pages"}.Source())
}

func testCollection() *Collection {
	return &Collection{Items: []Item{
		{Repo: Repo{Key: "octocat/site", Owner: "octocat", Name: "site"}, Publication: Publication{State: PublicationEnabled, Pages: &Pages{}}},
		{Repo: Repo{Key: "octocat/tools", Owner: "octocat", Name: "tools"}, Publication: Publication{State: PublicationAbsent}},
		{Repo: Repo{Key: "acme/tools", Owner: "acme", Name: "tools"}, Publication: Publication{State: PublicationUnknown, Err: errors.New("502 Bad Gateway")}},
	}}
}

func TestCollectionFind(t *testing.T) {
	c := testCollection()

	it, ok := c.Find("acme/tools")
	require.True(t, ok)
	require.Equal(t, "acme", it.Repo.Owner)
	_, ok = c.Find("tools")
	require.False(t, ok)

	it, err := c.FindByName("site")
	require.NoError(t, err)
	require.Equal(t, "octocat/site", it.Repo.Key)
	_, err = c.FindByName("tools")
	require.ErrorContains(t, err, "ambiguous")
	_, err = c.FindByName("missing")
	require.ErrorContains(t, err, "not found")

	var empty *Collection
	require.Zero(t, empty.Len())
	_, ok = empty.Find("octocat/site")
	require.False(t, ok)
}

func TestCollectionCountsAndProblems(t *testing.T) {
	c := testCollection()
	enabled, absent, unknown := c.Counts()
	require.Equal(t, []int{1, 1, 1}, []int{enabled, absent, unknown})

	err := c.Problems()
	require.Error(t, err)
	require.Contains(t, err.Error(), "repository acme/tools: 502 Bad Gateway")

	c.Items = c.Items[:2]
	require.NoError(t, c.Problems())
}
