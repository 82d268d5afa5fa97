// Package export writes the type registry out as a JSON-Schema document for
// the authoring tools. The output is deterministic: exporting an unchanged
// registry twice yields the same bytes.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

// Result describes a finished export.
type Result struct {
	Path   string
	Types  int
	Bytes  int
	Digest uint64
}

type Exporter struct {
	reg    *registry.Registry
	filter registry.Filter
	logger log.Log
}

// New creates an exporter. The entity type always passes the filter, since
// entity references in exported types point at it.
func New(reg *registry.Registry, filter registry.Filter, logger log.Log) *Exporter {
	if filter != nil {
		filter = filter.Or(registry.AllowList(scene.EntityTypePath))
	}
	return &Exporter{
		reg:    reg,
		filter: filter,
		logger: logger.With(log.String("component", "export")),
	}
}

// Build assembles the document from the current registry contents.
func (e *Exporter) Build() *Document {
	doc := &Document{
		Schema:   SchemaURI,
		LongName: LongName,
		Defs:     make(map[string]map[string]any),
	}
	e.reg.Each(func(desc *registry.Descriptor) bool {
		if e.filter.Allows(desc.Path) {
			doc.Defs[desc.Path] = fragment(desc)
		}
		return true
	})
	return doc
}

// Marshal renders the document as indented JSON with a trailing newline.
// Type paths are written unescaped, so generic brackets stay readable.
func (e *Exporter) Marshal() ([]byte, *Document, error) {
	doc := e.Build()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, nil, fmt.Errorf("marshal schema: %w", err)
	}
	return buf.Bytes(), doc, nil
}

// Export writes the document to path, replacing any previous file atomically.
// A failure leaves the previous file untouched.
func (e *Exporter) Export(path string) (Result, error) {
	data, doc, err := e.Marshal()
	if err != nil {
		return Result{}, err
	}
	if err := writeAtomic(path, data); err != nil {
		e.logger.Error("schema export failed", log.String("path", path), log.Error(err))
		return Result{}, err
	}

	res := Result{
		Path:   path,
		Types:  len(doc.Defs),
		Bytes:  len(data),
		Digest: xxhash.Sum64(data),
	}
	e.logger.Info("schema exported",
		log.String("path", path),
		log.Int("types", res.Types),
		log.String("digest", fmt.Sprintf("%016x", res.Digest)),
	)
	return res, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write schema: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close schema: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod schema: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
