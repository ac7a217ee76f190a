package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricName(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"", " auth/sign_in ", "auth_sign_in"},
		{"dnsm", "auth..sign_in.", "dnsm.auth.sign_in"},
		{"dnsm", "session resolve", "dnsm.session_resolve"},
		{"dnsm", "  ", ""},
		{"dnsm", "...", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, metricName(tt.prefix, tt.name), "%q + %q", tt.prefix, tt.name)
	}
}

func TestLineMergesTagsInKeyOrder(t *testing.T) {
	c, err := NewClient(Config{
		Prefix:     " .dnsm. ",
		GlobalTags: map[string]string{"env": "prod", " service ": " console "},
	})
	require.NoError(t, err)

	got := c.line("auth.sign_in", "1", "c", map[string]string{"result": " success ", "": "dropped", "env": "stage"})

	assert.Equal(t, "dnsm.auth.sign_in:1|c|#env:stage,result:success,service:console", got)
	assert.Equal(t, "prod", c.tags["env"], "global tags are not mutated")
}

func TestLineWithoutTags(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "x:2.5|ms", c.line("x", "2.5", "ms", nil))
	assert.Empty(t, c.line("", "1", "c", nil))
}

func TestClientSendsOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "dnsm"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	c.Timing("auth.sign_in.duration", 1500*time.Microsecond, map[string]string{"mode": "ldap"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "dnsm.auth.sign_in.duration:1.5|ms|#mode:ldap", string(buf[:n]))
}

func TestClientDisabled(t *testing.T) {
	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("ignored", 1, nil)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Count("ignored", 1, nil)
	assert.NoError(t, nilClient.Close())
}

func TestClientCloseIsIdempotent(t *testing.T) {
	local, peer := net.Pipe()
	t.Cleanup(func() { _ = peer.Close() })

	c := &Client{conn: local}
	require.True(t, c.Enabled())
	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Close())
}

func TestNewClientDialError(t *testing.T) {
	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}
