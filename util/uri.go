package util

import (
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"
)

// PathToURI converts a file path to a file:// URI.
func PathToURI(path string) uri.URI {
	return uri.File(NormalizePath(path))
}

// URIToPath converts a file:// URI back to a normalized path. Anything that
// is not a file URI is treated as a path already.
func URIToPath(u string) string {
	if strings.HasPrefix(u, uri.FileScheme+"://") {
		return NormalizePath(uri.URI(u).Filename())
	}
	return NormalizePath(u)
}

// NormalizePath returns the absolute, cleaned form of path used as a file
// identity throughout the engine.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
