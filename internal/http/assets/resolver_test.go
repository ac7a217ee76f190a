package assets

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestResolver_UsesManifest(t *testing.T) {
	fsys := fstest.MapFS{
		ManifestName: {Data: []byte(`{"css/app.css":"css/app.1a2b3c4d.css"}`)},
	}
	r := NewResolver(Config{FS: fsys})

	assert.Equal(t, "/static/css/app.1a2b3c4d.css", r.Resolve("css/app.css"))
	assert.Equal(t, "/static/js/app.js", r.Resolve("js/app.js"))
}

func TestResolver_MissingOrBrokenManifest(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{name: "missing", fsys: fstest.MapFS{}},
		{name: "malformed", fsys: fstest.MapFS{ManifestName: {Data: []byte(`{not json`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(Config{FS: tt.fsys})
			assert.Equal(t, "/static/css/app.css", r.Resolve("css/app.css"))
		})
	}
}

func TestResolver_ReloadPicksUpNewManifest(t *testing.T) {
	fsys := fstest.MapFS{}
	r := NewResolver(Config{FS: fsys, Reload: true})
	assert.Equal(t, "/static/js/app.js", r.Resolve("js/app.js"))

	fsys[ManifestName] = &fstest.MapFile{Data: []byte(`{"js/app.js":"js/app.0f0e0d0c.js"}`)}
	assert.Equal(t, "/static/js/app.0f0e0d0c.js", r.Resolve("js/app.js"))
}

func TestResolver_NilIsSafe(t *testing.T) {
	var r *Resolver
	assert.Equal(t, "/static/css/app.css", r.Resolve("css/app.css"))
}
