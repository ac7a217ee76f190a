package ports_test

import (
	"testing"

	"github.com/target/dns-manager-ui/internal/adapters/authroles"
	"github.com/target/dns-manager-ui/internal/mocks"
	mockauth "github.com/target/dns-manager-ui/internal/mocks/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.Authenticator = (*mockauth.StubAuthenticator)(nil)
	var _ ports.SSOProvider = (*mockauth.MockSSOProvider)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
	var _ ports.RoleMapper = authroles.StaticRoleMapper{}

	var _ ports.Authenticator = (*mocks.MockAuthenticator)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)
	var _ ports.TokenCodec = (*mocks.MockTokenCodec)(nil)
	var _ ports.UserRepository = (*mocks.MockUserRepository)(nil)
}
