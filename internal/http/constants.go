package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
// These constants ensure consistency across UI handlers and template mapping.
const (
	PageDashboard     = "dashboard"
	PageDomains       = "domains"
	PageLoadBalancers = "dns-loadbalancer"
	PageAdmin         = "admin"
	PageProfile       = "profile"
	PageSettings      = "settings"
	PageSignedOut     = "signed-out"
)

// Template and static asset paths used in dev mode and tests.
const (
	// Relative to the project root.
	TemplatePathFromRoot = "frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

// Cookie names.
const (
	SessionCookieName       = "dnsm_session"
	FlashCookieName         = "dnsm_flash"
	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"
)

// Routes referenced from handlers and middleware.
const (
	loginPath      = "/auth/login"
	signedOutPath  = "/auth/signed-out"
	defaultLanding = "/dashboard"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageDashboard:     "dashboard-content",
	PageDomains:       "domains-content",
	PageLoadBalancers: "loadbalancers-content",
	PageAdmin:         "admin-content",
	PageProfile:       "profile-content",
	PageSettings:      "settings-content",
	PageSignedOut:     "signed-out-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
// This is the single source of truth for page-to-template mapping.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
