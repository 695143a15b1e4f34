// Package openapi loads the API description, validates it, and serves it.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

type Document struct {
	spec *openapi3.T
	raw  []byte
}

// Load reads and validates the document at path.
func Load(ctx context.Context, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &Document{spec: spec, raw: raw}, nil
}

func (d *Document) Title() string {
	if d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Title
}

func (d *Document) Version() string {
	if d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Version
}

// basePath is the path of the first server URL, e.g. "/api/v1".
func (d *Document) basePath() string {
	if len(d.spec.Servers) == 0 {
		return ""
	}
	base, err := d.spec.Servers[0].BasePath()
	if err != nil {
		return ""
	}
	return strings.TrimRight(base, "/")
}

// Documents reports whether method and the chi route pattern are described. The
// pattern carries the server base path; template variable names may differ.
func (d *Document) Documents(method, pattern string) bool {
	path := strings.TrimPrefix(pattern, d.basePath())
	item := d.spec.Paths.Find(path)
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}

// Operations lists "METHOD /path" for every documented operation, sorted.
func (d *Document) Operations() []string {
	var ops []string
	for path, item := range d.spec.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, method+" "+d.basePath()+path)
		}
	}
	sort.Strings(ops)
	return ops
}

// Handler serves the raw document.
func (d *Document) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(d.raw)
	})
}
