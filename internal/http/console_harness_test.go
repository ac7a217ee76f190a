package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/dns-manager-ui/internal/adapters/authroles"
	"github.com/target/dns-manager-ui/internal/adapters/token"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	mockauth "github.com/target/dns-manager-ui/internal/mocks/auth"
	"github.com/target/dns-manager-ui/internal/service"
	"golang.org/x/net/html"
)

const testCSRFToken = "test-csrf-token"

// consoleHarness wires the real router to a real AuthService backed by in-memory doubles.
type consoleHarness struct {
	handler http.Handler
	authn   *mockauth.StubAuthenticator
	store   *mockauth.MemorySessionStore
	svc     *service.AuthService
}

type harnessOptions struct {
	Authenticator *mockauth.StubAuthenticator
	SSO           *mockauth.MockSSOProvider
	Users         UserDirectory
}

func newConsoleHarness(t *testing.T, opts harnessOptions) *consoleHarness {
	t.Helper()

	codec, err := token.NewJWTCodec(token.Config{Secret: "test-secret"})
	require.NoError(t, err)

	authn := opts.Authenticator
	if authn == nil && opts.SSO == nil {
		authn = &mockauth.StubAuthenticator{}
	}
	store := mockauth.NewMemorySessionStore()

	ports := service.AuthPorts{
		Sessions: store,
		Tokens:   codec,
		Roles:    authroles.StaticRoleMapper{AdminGroup: "admins", UserGroup: "users"},
	}
	if authn != nil {
		ports.Authenticator = authn
	}
	if opts.SSO != nil {
		ports.SSO = opts.SSO
	}
	svc := service.NewAuthService(service.AuthServiceOptions{
		Ports:  ports,
		Config: service.AuthServiceConfig{Mode: "mock"},
	})

	return &consoleHarness{
		handler: NewRouter(RouterServices{Auth: svc, Users: opts.Users}),
		authn:   authn,
		store:   store,
		svc:     svc,
	}
}

// signIn issues a session through the service and returns its token.
func (h *consoleHarness) signIn(t *testing.T, email, secret string) string {
	t.Helper()
	res, err := h.svc.SignIn(context.Background(), service.SignInInput{
		Credentials: domainauth.Credentials{Identifier: email, Secret: secret},
	})
	require.NoError(t, err)
	return res.Token
}

// adminAuthenticator accepts any credentials and reports admin group membership for admin@b.com.
func adminAuthenticator() *mockauth.StubAuthenticator {
	return &mockauth.StubAuthenticator{
		AuthenticateFunc: func(_ context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
			groups := []string{"users"}
			if creds.Identifier == "admin@b.com" {
				groups = []string{"admins"}
			}
			return domainauth.Identity{UserID: "id-" + creds.Identifier, Email: creds.Identifier, Groups: groups}, nil
		},
	}
}

type testRequest struct {
	Method  string
	Path    string
	Form    url.Values
	Token   string
	HTMX    bool
	Cookies []*http.Cookie
}

func (h *consoleHarness) do(t *testing.T, req testRequest) *httptest.ResponseRecorder {
	t.Helper()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var r *http.Request
	if req.Form != nil {
		r = httptest.NewRequest(method, req.Path, strings.NewReader(req.Form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, req.Path, nil)
	}
	r.Header.Set("Accept", "text/html")
	if req.HTMX {
		r.Header.Set("Hx-Request", "true")
	}
	if req.Token != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: req.Token})
	}
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	for _, c := range req.Cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, r)
	return w
}

func newJSONRequest(method, path string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	r.Header.Set("Accept", "application/json")
	return r
}

func recordRequest(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// loginFormValues returns a credential submission carrying the CSRF token.
func loginFormValues(email, secret string) url.Values {
	return url.Values{
		"csrf_token": {testCSRFToken},
		"email":      {email},
		"password":   {secret},
	}
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	}
}

func byAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, key)
		return ok && v == val
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// navGroups returns the data-group keys rendered in the sidebar.
func navGroups(doc *html.Node) []string {
	var keys []string
	for _, n := range findAll(doc, byClass("nav-group")) {
		if k, ok := attr(n, "data-group"); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
