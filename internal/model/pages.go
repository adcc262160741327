package model

import (
	"fmt"
	"strings"
)

// BuildMode selects how GitHub builds and publishes a Pages site.
type BuildMode string

const (
	BuildModeWorkflow BuildMode = "workflow" // GitHub Actions
	BuildModeLegacy   BuildMode = "legacy"   // deploy from a branch
)

// ParseBuildMode accepts the wire names plus a few aliases used on the
// command line.
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workflow", "actions":
		return BuildModeWorkflow, nil
	case "legacy", "branch", "legacy-branch":
		return BuildModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown build mode %q (want workflow or legacy)", s)
	}
}

// Label is the human name shown in selectors.
func (m BuildMode) Label() string {
	switch m {
	case BuildModeWorkflow:
		return "GitHub Actions"
	case BuildModeLegacy:
		return "Deploy from branch"
	default:
		return string(m)
	}
}

// SourcePaths are the publishing directories GitHub accepts for branch builds.
var SourcePaths = []string{"/", "/docs"}

// BuildConfig is the user's selection for creating or replacing a Pages site.
// Branch and Path are only meaningful for BuildModeLegacy.
type BuildConfig struct {
	Mode   BuildMode
	Branch string
	Path   string
}

// Validate checks the fields required by Mode.
func (c BuildConfig) Validate() error {
	switch c.Mode {
	case BuildModeWorkflow:
		return nil
	case BuildModeLegacy:
		if strings.TrimSpace(c.Branch) == "" {
			return fmt.Errorf("branch is required for %s builds", c.Mode)
		}
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("path is required for %s builds", c.Mode)
		}
		return nil
	case "":
		return fmt.Errorf("build mode is required")
	default:
		return fmt.Errorf("unknown build mode %q", c.Mode)
	}
}

// Pages is the Pages configuration of one repository.
type Pages struct {
	HTMLURL   string
	Status    string // "built", "building", "errored", or "" when unknown
	BuildMode BuildMode
	Branch    string
	Path      string
}

// Source renders "branch / path" for branch builds.
func (p Pages) Source() string {
	if p.Branch == "" {
		return ""
	}
	path := p.Path
	if path == "" {
		path = "/"
	}
	return p.Branch + " / " + path
}

// PublicationState distinguishes a confirmed missing Pages site from one we
// failed to check.
type PublicationState int

const (
	PublicationUnknown PublicationState = iota
	PublicationAbsent
	PublicationEnabled
)

func (s PublicationState) String() string {
	switch s {
	case PublicationEnabled:
		return "enabled"
	case PublicationAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Publication is the enrichment result for one repository.
type Publication struct {
	State PublicationState
	Pages *Pages // set when State is PublicationEnabled
	Err   error  // set when State is PublicationUnknown
}

// Present reports whether a Pages site is confirmed to exist.
func (p Publication) Present() bool { return p.State == PublicationEnabled }
