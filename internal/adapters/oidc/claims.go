package oidc

import (
	"strings"

	"github.com/jmespath-community/go-jmespath"
)

// profile is what the console reads from ID token and userinfo claims.
type profile struct {
	subject string
	email   string
	given   string
	family  string
	groups  []string
}

// readProfile accepts standard OIDC claim names as well as the AD FS shape
// (samaccountname, mail, firstname, lastname).
func readProfile(claims map[string]any, groups groupsSelector) profile {
	p := profile{
		subject: firstClaim(claims, "samaccountname", "preferred_username", "sub"),
		email:   firstClaim(claims, "email", "mail"),
		given:   firstClaim(claims, "given_name", "firstname"),
		family:  firstClaim(claims, "family_name", "lastname"),
	}
	if groups != nil {
		p.groups = groups(claims)
	}
	return p
}

// complete reports whether the userinfo endpoint can be skipped.
func (p profile) complete() bool {
	return p.subject != "" && p.email != ""
}

// orElse keeps p's values and takes the rest from fallback.
func (p profile) orElse(fallback profile) profile {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	p.subject = pick(p.subject, fallback.subject)
	p.email = pick(p.email, fallback.email)
	p.given = pick(p.given, fallback.given)
	p.family = pick(p.family, fallback.family)
	if len(p.groups) == 0 {
		p.groups = fallback.groups
	}
	return p
}

func firstClaim(claims map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// groupsSelector extracts group names from a claim set.
type groupsSelector func(claims map[string]any) []string

// compileGroups builds a selector from a JMESPath expression. A string result
// is one group; non-string list items are skipped.
func compileGroups(expr string) (groupsSelector, error) {
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, err
	}
	return func(claims map[string]any) []string {
		res, err := compiled.Search(claims)
		if err != nil {
			return nil
		}
		switch v := res.(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			return out
		}
		return nil
	}, nil
}
