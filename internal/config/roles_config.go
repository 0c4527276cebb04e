package config

import "maps"

// RolesConfig carries the static group-to-role mapping table applied at
// session-creation time. An empty DefaultRole means users whose groups match
// nothing stay unauthorized.
type RolesConfig interface {
	GetGroupRoleMapping() map[string]string
	GetDefaultRole() string
}

var _ RolesConfig = mainConfig{}

func (c mainConfig) GetGroupRoleMapping() map[string]string {
	mapping := make(map[string]string, len(c.vars.GroupRoleMap))
	maps.Copy(mapping, c.vars.GroupRoleMap)
	return mapping
}

func (c mainConfig) GetDefaultRole() string {
	return c.vars.DefaultRole
}
