// Package assets maps logical static asset names onto the content-hashed
// files listed in the build manifest.
package assets

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
)

// ManifestName is the manifest file at the root of the static filesystem.
const ManifestName = "manifest.json"

// Resolver resolves logical asset names such as "css/app.css" to served URLs.
type Resolver struct {
	fsys   fs.FS
	reload bool
	logger *slog.Logger

	mu       sync.RWMutex
	manifest map[string]string
}

// Config configures a Resolver.
type Config struct {
	// FS is the static filesystem; the manifest is read from its root.
	FS fs.FS
	// Reload re-reads the manifest on every lookup (dev mode, disk-backed FS).
	Reload bool
	Logger *slog.Logger
}

// NewResolver loads the manifest once. A missing manifest is not an error:
// every asset then resolves to its logical name.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{fsys: cfg.FS, reload: cfg.Reload, logger: cfg.Logger}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.load()
	return r
}

// Resolve returns the /static URL for a logical asset name.
func (r *Resolver) Resolve(logicalName string) string {
	if r == nil {
		return "/static/" + logicalName
	}
	if r.reload {
		r.load()
	}

	r.mu.RLock()
	hashed, ok := r.manifest[logicalName]
	r.mu.RUnlock()
	if ok && hashed != "" {
		return "/static/" + hashed
	}
	return "/static/" + logicalName
}

func (r *Resolver) load() {
	manifest, err := readManifest(r.fsys)
	if err != nil {
		r.logger.Error("failed to load asset manifest", slog.String("manifest", ManifestName), slog.Any("error", err))
		manifest = nil
	}

	r.mu.Lock()
	r.manifest = manifest
	r.mu.Unlock()
}

func readManifest(fsys fs.FS) (map[string]string, error) {
	if fsys == nil {
		return nil, nil
	}
	data, err := fs.ReadFile(fsys, ManifestName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}
