// Package safety decides which projects the telemetry server may report on
// and keeps an audit trail of the calls it makes.
package safety

import (
	"path"

	"github.com/jamesprial/migas-go/internal/config"
)

// Filter controls which project names may be reported, using an allowlist
// and a denylist of path.Match globs. Project names look like "owner/repo";
// "*" does not cross the slash, so "nipreps/*" matches every nipreps repo.
//
// Rules:
//   - If both lists are empty (or nil), every project is allowed.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, a project must match at least one
//     allowlist pattern to be permitted (after the denylist check).
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the configured project lists.
func NewFilter(cfg config.ProjectFilter) *Filter {
	return &Filter{
		allowlist: cfg.Allowlist,
		denylist:  cfg.Denylist,
	}
}

// IsAllowed reports whether project is permitted by this filter. A nil
// Filter allows everything.
func (f *Filter) IsAllowed(project string) bool {
	if f == nil {
		return true
	}

	for _, pattern := range f.denylist {
		if matchGlob(pattern, project) {
			return false
		}
	}

	if len(f.allowlist) == 0 {
		return true
	}

	for _, pattern := range f.allowlist {
		if matchGlob(pattern, project) {
			return true
		}
	}

	return false
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
