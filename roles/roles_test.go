package roles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-device-auth/roles"
)

const (
	adminGroupID  = "11111111-aaaa-4bbb-8ccc-000000000001"
	userGroupID   = "11111111-aaaa-4bbb-8ccc-000000000002"
	secondAdminID = "11111111-aaaa-4bbb-8ccc-000000000003"
)

func testMapping() map[string]string {
	return map[string]string{
		adminGroupID:  "admin",
		secondAdminID: "admin",
		userGroupID:   "user",
	}
}

func TestResolveMapsGroupsToRoles(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "")

	resolved := resolver.Resolve([]string{userGroupID, adminGroupID})
	require.Equal(t, []string{"admin", "user"}, resolved)
}

func TestResolveDeduplicatesRoles(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "")

	// Both groups map to "admin"; the result is a set, not a sequence.
	resolved := resolver.Resolve([]string{adminGroupID, secondAdminID})
	require.Equal(t, []string{"admin"}, resolved)
}

func TestResolveIgnoresUnknownGroups(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "")

	resolved := resolver.Resolve([]string{"unmapped-group", userGroupID})
	require.Equal(t, []string{"user"}, resolved)
}

func TestResolveFallsBackToDefaultRole(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "guest")

	resolved := resolver.Resolve([]string{"unmapped-group"})
	require.Equal(t, []string{"guest"}, resolved)
}

func TestResolveNoMatchNoDefaultIsEmpty(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "")

	require.Empty(t, resolver.Resolve([]string{"unmapped-group"}))
	require.Empty(t, resolver.Resolve(nil))
}

func TestResolveDefaultNotAppliedWhenGroupsMatch(t *testing.T) {
	resolver := roles.NewResolver(testMapping(), "guest")

	resolved := resolver.Resolve([]string{adminGroupID})
	require.Equal(t, []string{"admin"}, resolved)
}
