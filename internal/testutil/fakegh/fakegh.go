// Package fakegh is an in-memory stand-in for the parts of the GitHub REST API
// pagesdeck talks to.
package fakegh

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const Token = "test-token"

type Repo struct {
	Owner         string
	Name          string
	DefaultBranch string
	Private       bool
}

func (r Repo) Key() string { return r.Owner + "/" + r.Name }

type Site struct {
	BuildType string
	Branch    string
	Path      string
}

type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Accept string
	Body   []byte
}

type Server struct {
	*httptest.Server
	Login string

	mu       sync.Mutex
	repos    []Repo
	sites    map[string]Site
	branches map[string][]string
	failures map[string]int
	requests []Request
}

// New starts a server that is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		Login:    "octocat",
		sites:    map[string]Site{},
		branches: map[string][]string{},
		failures: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// APIURL is the API root to configure clients with.
func (s *Server) APIURL() string { return s.URL + "/" }

func (s *Server) AddRepo(r Repo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	s.repos = append(s.repos, r)
}

// AddRepos adds n repositories named repo-0 .. repo-(n-1) owned by Login.
func (s *Server) AddRepos(n int) {
	for i := 0; i < n; i++ {
		s.AddRepo(Repo{Owner: s.Login, Name: fmt.Sprintf("repo-%d", i)})
	}
}

func (s *Server) SetSite(key string, site Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[key] = site
}

func (s *Server) Site(key string) (Site, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[key]
	return site, ok
}

func (s *Server) SetBranches(key string, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[key] = names
}

// Fail makes every request matching method and path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request matching method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Accept: r.Header.Get("Accept"),
		Body:   body,
	})
	status, failing := s.failures[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+Token {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if failing {
		writeError(w, status, http.StatusText(status))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/user" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"login": s.Login})
	case r.URL.Path == "/user/repos" && r.Method == http.MethodGet:
		s.listRepos(w, r)
	case len(parts) == 4 && parts[0] == "repos" && parts[3] == "pages":
		s.pages(w, r, parts[1]+"/"+parts[2], body)
	case len(parts) == 4 && parts[0] == "repos" && parts[3] == "branches" && r.Method == http.MethodGet:
		s.listBranches(w, r, parts[1]+"/"+parts[2])
	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	repos := append([]Repo(nil), s.repos...)
	s.mu.Unlock()

	start, end := pageBounds(r, len(repos))
	out := make([]map[string]interface{}, 0, end-start)
	for i, repo := range repos[start:end] {
		out = append(out, map[string]interface{}{
			"id":             start + i + 1,
			"name":           repo.Name,
			"full_name":      repo.Key(),
			"owner":          map[string]interface{}{"login": repo.Owner},
			"default_branch": repo.DefaultBranch,
			"private":        repo.Private,
			"html_url":       "https://github.com/" + repo.Key(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request, key string) {
	s.mu.Lock()
	names := append([]string(nil), s.branches[key]...)
	s.mu.Unlock()

	start, end := pageBounds(r, len(names))
	out := make([]map[string]interface{}, 0, end-start)
	for _, name := range names[start:end] {
		out = append(out, map[string]interface{}{"name": name})
	}
	writeJSON(w, http.StatusOK, out)
}

type pagesBody struct {
	BuildType string `json:"build_type"`
	Source    *struct {
		Branch string `json:"branch"`
		Path   string `json:"path"`
	} `json:"source"`
}

func (s *Server) pages(w http.ResponseWriter, r *http.Request, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, exists := s.sites[key]

	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, siteJSON(key, site))
	case http.MethodPost, http.MethodPut:
		if r.Method == http.MethodPost && exists {
			writeError(w, http.StatusConflict, "GitHub Pages is already enabled.")
			return
		}
		if r.Method == http.MethodPut && !exists {
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		var req pagesBody
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Problems parsing JSON")
			return
		}
		site = Site{BuildType: req.BuildType}
		if req.Source != nil {
			site.Branch = req.Source.Branch
			site.Path = req.Source.Path
		}
		s.sites[key] = site
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusCreated, siteJSON(key, site))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if !exists {
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		delete(s.sites, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func siteJSON(key string, site Site) map[string]interface{} {
	owner, name, _ := strings.Cut(key, "/")
	out := map[string]interface{}{
		"url":        "https://api.github.com/repos/" + key + "/pages",
		"status":     "built",
		"html_url":   fmt.Sprintf("https://%s.github.io/%s/", owner, name),
		"build_type": site.BuildType,
	}
	if site.Branch != "" {
		out["source"] = map[string]interface{}{"branch": site.Branch, "path": site.Path}
	}
	return out
}

func pageBounds(r *http.Request, total int) (int, int) {
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 30
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"message": message})
}
