// Package mimetype maps file extensions to content types.
package mimetype

import (
	"mime"
	"path"
	"strings"
)

const (
	Wasm        = "application/wasm"
	OctetStream = "application/octet-stream"
)

// Registry layers explicit extension overrides on top of the platform
// defaults known to the mime package. It is read-only after New and safe
// for concurrent use.
type Registry struct {
	overrides map[string]string
}

// New creates a registry. Extensions may be given with or without the
// leading dot and in any case.
func New(overrides map[string]string) *Registry {
	r := &Registry{overrides: make(map[string]string, len(overrides))}
	for ext, typ := range overrides {
		r.overrides[normalizeExt(ext)] = typ
	}
	return r
}

// Default returns the registry used by the server: platform defaults plus
// application/wasm for .wasm.
func Default() *Registry {
	return New(map[string]string{".wasm": Wasm})
}

// TypeByExtension returns the content type for ext, or "" if neither the
// overrides nor the platform know it.
func (r *Registry) TypeByExtension(ext string) string {
	ext = normalizeExt(ext)
	if ext == "" {
		return ""
	}
	if typ, ok := r.overrides[ext]; ok {
		return typ
	}
	return mime.TypeByExtension(ext)
}

// ContentType returns the content type for a file name, falling back to
// application/octet-stream.
func (r *Registry) ContentType(name string) string {
	if typ := r.TypeByExtension(path.Ext(name)); typ != "" {
		return typ
	}
	return OctetStream
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
