package git

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"pagesdeck/internal/model"
)

// RepoRoot returns the absolute path of the git repository containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return out, nil
}

// RemoteURL returns the fetch URL of the origin remote of the checkout at dir.
func RemoteURL(dir string) (string, error) {
	out, err := gitOutput(dir, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("git remote get-url origin: %w", err)
	}
	return out, nil
}

// CurrentRepo returns the "owner/name" key of the GitHub repository the
// checkout at dir was cloned from.
func CurrentRepo(dir string) (string, error) {
	raw, err := RemoteURL(dir)
	if err != nil {
		return "", err
	}
	owner, name, err := ParseRemote(raw)
	if err != nil {
		return "", err
	}
	return model.RepoKey(owner, name), nil
}

// ParseRemote extracts owner and name from a git remote URL. It understands
// scp-style (git@github.com:owner/name.git), https:// and ssh:// forms.
func ParseRemote(raw string) (owner, name string, err error) {
	raw = strings.TrimSpace(raw)
	var path string
	switch {
	case strings.Contains(raw, "://"):
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("parse remote %q: %w", raw, perr)
		}
		path = u.Path
	case strings.Contains(raw, ":"):
		// scp-like syntax
		_, path, _ = strings.Cut(raw, ":")
	default:
		return "", "", fmt.Errorf("unrecognised remote %q", raw)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("remote %q does not name owner/repository", raw)
	}
	return parts[0], parts[1], nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("%s", strings.TrimSpace(string(ee.Stderr)))
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
