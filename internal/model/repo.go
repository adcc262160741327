package model

import "time"

// Repo is a repository as returned by the collection endpoint. Fields are a
// snapshot; Key identifies the repo within a Collection.
type Repo struct {
	ID            int64
	Key           string // "owner/name"
	Owner         string
	Name          string
	DefaultBranch string
	Private       bool
	HTMLURL       string
	UpdatedAt     time.Time
}

// Visibility returns "private" or "public".
func (r Repo) Visibility() string {
	if r.Private {
		return "private"
	}
	return "public"
}

// RepoKey builds the identity key for owner and name.
func RepoKey(owner, name string) string {
	return owner + "/" + name
}
