package assets

import (
	"html/template"

	httpassets "github.com/target/dns-manager-ui/internal/http/assets"
)

// Funcs returns the "asset" helper, which turns a logical name into its served URL.
func Funcs(resolver *httpassets.Resolver) template.FuncMap {
	return template.FuncMap{
		"asset": resolver.Resolve,
	}
}
