package authroles

import (
	"strings"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

// StaticRoleMapper maps groups by simple string membership rules.
// Matching is case-insensitive and a configured plain name also matches
// an LDAP DN whose first RDN carries that name ("admins" matches "cn=admins,ou=groups,...").
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

var _ ports.RoleMapper = StaticRoleMapper{}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	if containsGroup(groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	if containsGroup(groups, m.UserGroup) {
		return domainauth.RoleUser
	}
	return domainauth.RoleGuest
}

func containsGroup(groups []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if strings.EqualFold(g, want) || strings.EqualFold(firstRDNValue(g), want) {
			return true
		}
	}
	return false
}

// firstRDNValue returns "admins" for "cn=admins,ou=groups,dc=example,dc=org".
func firstRDNValue(dn string) string {
	first, _, _ := strings.Cut(dn, ",")
	_, val, ok := strings.Cut(first, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}
