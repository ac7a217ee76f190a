package auth

import "strings"

// Credentials is the identifier/secret pair collected by the login form.
// It only lives for the duration of a single request.
type Credentials struct {
	Identifier string
	Secret     string
}

// Normalized trims the identifier and lower-cases it. The secret is left untouched.
func (c Credentials) Normalized() Credentials {
	return Credentials{
		Identifier: strings.ToLower(strings.TrimSpace(c.Identifier)),
		Secret:     c.Secret,
	}
}

// Validate returns ErrCredentialsRequired when either field is blank.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" || c.Secret == "" {
		return ErrCredentialsRequired
	}
	return nil
}

// RedactedIdentifier keeps only the normalized domain part so identifiers can be logged.
func (c Credentials) RedactedIdentifier() string {
	id := c.Normalized().Identifier
	if at := strings.LastIndexByte(id, '@'); at >= 0 {
		return "***" + id[at:]
	}
	if id == "" {
		return ""
	}
	return "***"
}
