// Package roles resolves identity-provider group memberships into
// application role names using a static mapping table.
package roles

import (
	"maps"
	"sort"
)

// Resolver maps provider group IDs to role names. Resolution happens once at
// session-creation time, never per request.
type Resolver struct {
	groupToRole map[string]string
	defaultRole string
}

// NewResolver builds a Resolver from a groupID -> role table and an optional
// default role. An empty defaultRole disables the fallback, so principals
// whose groups match nothing resolve to no roles at all.
func NewResolver(groupToRole map[string]string, defaultRole string) *Resolver {
	mapping := make(map[string]string, len(groupToRole))
	maps.Copy(mapping, groupToRole)

	return &Resolver{
		groupToRole: mapping,
		defaultRole: defaultRole,
	}
}

// Resolve returns the deduplicated, sorted set of roles mapped from groupIDs.
// If nothing matches and a default role is configured, the result is just the
// default. If nothing matches and no default exists, the result is empty —
// callers must treat that as an unauthorized outcome, not a role-less user.
func (r *Resolver) Resolve(groupIDs []string) []string {
	matched := make(map[string]struct{})
	for _, gid := range groupIDs {
		if role, ok := r.groupToRole[gid]; ok && role != "" {
			matched[role] = struct{}{}
		}
	}

	if len(matched) == 0 {
		if r.defaultRole == "" {
			return nil
		}
		return []string{r.defaultRole}
	}

	resolved := make([]string, 0, len(matched))
	for role := range matched {
		resolved = append(resolved, role)
	}
	sort.Strings(resolved)
	return resolved
}
