package mediatypes

import (
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry answers whether a file is an accepted lesson video
type Registry struct {
	catalog *Catalog
	byExt   map[string]*Format
	byMIME  map[string]*Format
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded video catalog.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		data, err := configFiles.ReadFile("config/video.yaml")
		if err != nil {
			defaultErr = fmt.Errorf("failed to read video catalog: %w", err)
			return
		}
		defaultRegistry, defaultErr = Parse(data)
	})
	return defaultRegistry, defaultErr
}

// MustDefault is Default for package-level wiring; the embedded file is
// covered by tests so a failure here is a build defect.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Parse builds a registry from catalog YAML
func Parse(data []byte) (*Registry, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if len(catalog.Formats) == 0 {
		return nil, fmt.Errorf("catalog %q lists no formats", catalog.Category)
	}

	r := &Registry{
		catalog: &catalog,
		byExt:   make(map[string]*Format),
		byMIME:  make(map[string]*Format),
	}
	for i := range catalog.Formats {
		f := &catalog.Formats[i]
		r.byExt[strings.ToLower(f.Extension)] = f
		for _, m := range f.MIMETypes {
			r.byMIME[strings.ToLower(m)] = f
		}
	}
	return r, nil
}

// Formats returns the accepted formats in catalog order
func (r *Registry) Formats() []Format {
	out := make([]Format, len(r.catalog.Formats))
	copy(out, r.catalog.Formats)
	return out
}

// AcceptAttribute renders the formats as an HTML accept list (".mp4,.webm,...")
func (r *Registry) AcceptAttribute() string {
	exts := make([]string, 0, len(r.catalog.Formats))
	for _, f := range r.catalog.Formats {
		exts = append(exts, "."+f.Extension)
	}
	return strings.Join(exts, ",")
}

// Match finds the format for a file. A declared content type decides on
// its own; the extension is only consulted when the type is unknown.
func (r *Registry) Match(fileName, contentType string) (*Format, bool) {
	ct := normalizeContentType(contentType)
	if ct != "" {
		f, ok := r.byMIME[ct]
		return f, ok
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	f, ok := r.byExt[ext]
	return f, ok
}

// Sniff detects the content type from the leading bytes of a file
func (r *Registry) Sniff(rd io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(rd)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	return normalizeContentType(mt.String()), nil
}

// normalizeContentType strips parameters and treats generic binary as unknown
func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
