package httpx

import (
	"compress/gzip"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes lists the response types worth compressing. Images and
// fonts are already compressed.
var compressibleTypes = []string{ //nolint:gochecknoglobals // read-only
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level int // 1 (fastest) to 9 (smallest); anything else uses the gzip default
}

// Compression gzips (or deflates) text responses for clients that accept it.
// Handlers must set Content-Type before writing for the body to be compressed.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	level := cfg.Level
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return middleware.Compress(level, compressibleTypes...)
}
