package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	dnsmanager "github.com/target/dns-manager-ui"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	httpassets "github.com/target/dns-manager-ui/internal/http/assets"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth AuthServiceInterface
	// Optional: account directory shown on the admin panel (AUTH_MODE=password).
	Users        UserDirectory
	CookieDomain string
	// Links shown on the login form.
	ContactURL        string
	ForgotPasswordURL string
	// LogoutURL is the identity provider's end-session page (optional).
	LogoutURL string
	IsDev     bool         // Development mode flag for hot reloading, etc.
	Logger    *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	if services.Auth == nil {
		panic("RouterServices.Auth is required") //nolint:forbidigo // Fail fast during server setup.
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	static := staticFS(services.IsDev)
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	uiHandlers := setupUIHandlers(services, httpassets.NewResolver(httpassets.Config{
		FS:     static,
		Reload: services.IsDev,
		Logger: services.Logger,
	}))
	authHandlers := &AuthHandlers{
		Svc:               services.Auth,
		UI:                uiHandlers,
		CookieDomain:      services.CookieDomain,
		ContactURL:        services.ContactURL,
		ForgotPasswordURL: services.ForgotPasswordURL,
		Logger:            services.Logger,
	}
	registerAuthAPIRoutes(mux, authHandlers)
	registerAccountAPIRoutes(mux, services.Auth, &AccountAPIHandlers{Users: services.Users, Logger: services.Logger})

	if uiHandlers != nil {
		cfg := uiRouteConfig{Auth: services.Auth, CookieDomain: services.CookieDomain}
		registerAuthUIRoutes(mux, authHandlers, cfg)
		registerUIRoutes(mux, uiHandlers, cfg)
	}

	// Wrap with NotFound handler and browser detection middleware
	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}

	// Identity is resolved once here so every page, including the 404 page,
	// renders the sidebar for the same tier.
	return BrowserDetection()(OptionalAuth(services.Auth)(handler))
}

// templateFS picks the template source: disk in dev mode, the embedded copy otherwise.
func templateFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(dnsmanager.TemplateFS, "frontend/templates")
	if err != nil {
		log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// setupUIHandlers creates UI handlers with a template renderer.
// In dev mode (services.IsDev=true), templates are loaded from disk for hot reloading.
// In production mode (services.IsDev=false), templates are loaded from embedded FS.
func setupUIHandlers(services RouterServices, assets *httpassets.Resolver) *UIHandlers {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev),
		Logger:     services.Logger,
		Assets:     assets,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:            tr,
		Users:        services.Users,
		CookieDomain: services.CookieDomain,
		LogoutURL:    services.LogoutURL,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}
}

// staticFS picks the static asset source: disk in dev mode, the embedded copy otherwise.
func staticFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(StaticPathFromRoot)
	}
	sub, err := fs.Sub(dnsmanager.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v; falling back to disk", err)
		return os.DirFS(StaticPathFromRoot)
	}
	return sub
}

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	// Matches content-hashed filenames such as app.abc123de.js.
	hashedFilePattern := regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	// Serve the request through the mux, capturing status, headers, and body
	h.mux.ServeHTTP(cw, r)

	// If the mux didn't handle the request (404), use our custom handler
	if cw.status == http.StatusNotFound {
		// For missing static assets, preserve the default file server response
		if strings.HasPrefix(r.URL.Path, "/static/") {
			cw.flushTo(w)
			return
		}
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	// Not a 404: write the captured response
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}

// registerAuthAPIRoutes wires the JSON status endpoint and the SSO redirect pair.
func registerAuthAPIRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/sso", h.SSO)
	mux.HandleFunc("GET /auth/callback", h.Callback)
}

// registerAuthUIRoutes wires the login form and sign-out. All of them carry the CSRF token.
func registerAuthUIRoutes(mux *http.ServeMux, h *AuthHandlers, cfg uiRouteConfig) {
	csrf := cfg.csrf()
	mux.Handle("GET /auth/login", csrf(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST /auth/login", csrf(http.HandlerFunc(h.LoginSubmit)))
	mux.Handle("POST /auth/logout", csrf(http.HandlerFunc(h.Logout)))
}

// uiRouteConfig holds configuration for UI route registration.
type uiRouteConfig struct {
	Auth         AuthServiceInterface
	CookieDomain string
}

func (cfg uiRouteConfig) csrf() func(http.Handler) http.Handler {
	return CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
}

// authWrap requires a signed-in identity and issues the CSRF token the sidebar's sign-out form needs.
func (cfg uiRouteConfig) authWrap() func(http.Handler) http.Handler {
	csrf := cfg.csrf()
	auth := RequireAuthBrowser(cfg.Auth)
	return func(h http.Handler) http.Handler {
		return auth(csrf(h))
	}
}

// adminWrap requires the privileged tier; lower tiers get the rendered 403 page.
func (cfg uiRouteConfig) adminWrap(denied http.HandlerFunc) func(http.Handler) http.Handler {
	csrf := cfg.csrf()
	roleCheck := RequireTierBrowser(cfg.Auth, domainauth.TierPrivileged, denied)
	return func(h http.Handler) http.Handler {
		return roleCheck(csrf(h))
	}
}

// registerUIRoutes wires the console pages reachable from the sidebar.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /{$}", http.HandlerFunc(h.Index))
	mux.Handle("GET /dashboard", wrap(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /domains", wrap(http.HandlerFunc(h.Domains)))
	mux.Handle("GET /dns-loadbalancer", wrap(http.HandlerFunc(h.LoadBalancers)))
	mux.Handle("GET /profile", wrap(http.HandlerFunc(h.Profile)))
	mux.Handle("GET /settings", wrap(http.HandlerFunc(h.Settings)))

	wrapAdmin := cfg.adminWrap(h.Forbidden)
	mux.Handle("GET /admin", wrapAdmin(http.HandlerFunc(h.Admin)))

	// Public auth-related UI routes (no auth wrapper)
	mux.Handle("GET /auth/signed-out", cfg.csrf()(http.HandlerFunc(h.SignedOut)))
}
