package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

func groupKeys(views []GroupView) []string {
	keys := make([]string, 0, len(views))
	for _, v := range views {
		keys = append(keys, v.Key)
	}
	return keys
}

func countKey(views []GroupView, key string) int {
	n := 0
	for _, v := range views {
		if v.Key == key {
			n++
		}
	}
	return n
}

func TestRender_AdminGroupGate(t *testing.T) {
	tests := []struct {
		name      string
		tier      domainauth.Tier
		wantKeys  []string
		wantAdmin int
	}{
		{name: "unauthenticated", tier: domainauth.TierUnauthenticated, wantKeys: []string{}, wantAdmin: 0},
		{name: "standard", tier: domainauth.TierStandard, wantKeys: []string{GroupPrimary, GroupAccount}, wantAdmin: 0},
		{
			name:      "privileged",
			tier:      domainauth.TierPrivileged,
			wantKeys:  []string{GroupPrimary, GroupAdmin, GroupAccount},
			wantAdmin: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views := Render(tt.tier, "/dashboard")
			assert.Equal(t, tt.wantKeys, groupKeys(views))
			assert.Equal(t, tt.wantAdmin, countKey(views, GroupAdmin))
		})
	}
}

func TestRender_MarksActiveEntry(t *testing.T) {
	views := Render(domainauth.TierStandard, "/domains/example.com?tab=records")
	require.Len(t, views, 2)

	var active []string
	for _, g := range views {
		for _, e := range g.Entries {
			if e.Active {
				active = append(active, e.Path)
			}
		}
	}
	assert.Equal(t, []string{"/domains"}, active)
}

func TestRender_PrefixDoesNotLeakAcrossEntries(t *testing.T) {
	views := Render(domainauth.TierPrivileged, "/administrators")
	for _, g := range views {
		for _, e := range g.Entries {
			assert.False(t, e.Active, "entry %s should not be active", e.Path)
		}
	}
}

func TestRender_EntriesInDisplayOrder(t *testing.T) {
	views := Render(domainauth.TierPrivileged, "/")
	require.Len(t, views, 3)

	primary := views[0]
	assert.Equal(t, "Ana Menü", primary.Label)
	require.Len(t, primary.Entries, 3)
	assert.Equal(t, "/dashboard", primary.Entries[0].Path)
	assert.Equal(t, "Genel bakış ve istatistikler", primary.Entries[0].Description)
	assert.Equal(t, "/dns-loadbalancer", primary.Entries[2].Path)
	assert.Equal(t, "server", primary.Entries[2].Icon)

	assert.Equal(t, "Yönetim", views[1].Label)
	assert.Equal(t, "crown", views[1].Entries[0].Icon)
	assert.Equal(t, "Hesap", views[2].Label)
}

func TestVisible(t *testing.T) {
	for _, g := range Groups() {
		assert.True(t, Visible(g, domainauth.TierPrivileged), g.Key)
		assert.False(t, Visible(g, domainauth.TierUnauthenticated), g.Key)
		assert.Equal(t, g.Key != GroupAdmin, Visible(g, domainauth.TierStandard), g.Key)
	}
}

func TestGroups_ReturnsCopy(t *testing.T) {
	gs := Groups()
	gs[0].Entries[0].Label = "changed"
	assert.Equal(t, "Dashboard", Groups()[0].Entries[0].Label)
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("/settings/")
	require.True(t, ok)
	assert.Equal(t, "Ayarlar", e.Label)

	_, ok = Lookup("/nope")
	assert.False(t, ok)
}
