// Package scenefile loads authored scene descriptions: a tree of named nodes
// carrying metadata blobs per level, some of them marked as instance roots.
// Files are YAML; JSON is accepted as well.
package scenefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/pkg/concurrent"
)

var ErrInvalid = errors.New("invalid scene file")

type Node struct {
	Name     string               `yaml:"name"`
	Instance bool                 `yaml:"instance,omitempty"`
	Extras   map[string]yaml.Node `yaml:"extras,omitempty"`
	Children []Node               `yaml:"children,omitempty"`
}

type File struct {
	Path  string `yaml:"-"`
	Name  string `yaml:"name"`
	Nodes []Node `yaml:"nodes"`
}

// Load reads and validates the scene file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.Path = path
	return file, nil
}

// LoadAll loads every path concurrently. Results keep the order of paths.
func LoadAll(ctx context.Context, paths []string, limit int) ([]*File, error) {
	return concurrent.Map(ctx, paths, limit, func(_ context.Context, path string) (*File, error) {
		return Load(path)
	})
}

func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validate(file.Nodes, ""); err != nil {
		return nil, err
	}
	return &file, nil
}

func validate(nodes []Node, at string) error {
	for _, n := range nodes {
		path := at + "/" + n.Name
		if n.Name == "" {
			return fmt.Errorf("%w: unnamed node under %q", ErrInvalid, at+"/")
		}
		for level, value := range n.Extras {
			if _, err := scene.ParseLevel(level); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
			}
			if _, err := blobText(&value); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
			}
		}
		if err := validate(n.Children, path); err != nil {
			return err
		}
	}
	return nil
}

// Spawn adds the file's nodes to w in pre-order, so a parent's metadata is
// queued before its children's. It returns the new root nodes.
func (f *File) Spawn(w *scene.World) ([]scene.NodeID, error) {
	roots := make([]scene.NodeID, 0, len(f.Nodes))
	for i := range f.Nodes {
		id, err := spawn(w, &f.Nodes[i], scene.Placeholder)
		if err != nil {
			return roots, err
		}
		roots = append(roots, id)
	}
	return roots, nil
}

func spawn(w *scene.World, n *Node, parent scene.NodeID) (scene.NodeID, error) {
	var id scene.NodeID
	if parent == scene.Placeholder {
		id = w.Spawn(n.Name)
	} else {
		var err error
		if id, err = w.SpawnChild(parent, n.Name); err != nil {
			return id, err
		}
	}
	if n.Instance {
		if _, err := w.MarkInstance(id); err != nil {
			return id, err
		}
	}
	for _, level := range scene.Levels {
		value, ok := n.Extras[level.String()]
		if !ok {
			continue
		}
		blob, err := blobText(&value)
		if err != nil {
			return id, err
		}
		if err := w.SetExtras(id, level, blob); err != nil {
			return id, err
		}
	}
	for i := range n.Children {
		if _, err := spawn(w, &n.Children[i], id); err != nil {
			return id, err
		}
	}
	return id, nil
}

// blobText returns string values verbatim and re-encodes inline mappings.
func blobText(value *yaml.Node) (string, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Value, nil
	case yaml.MappingNode:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		if err := enc.Encode(value); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("extras must be a string or a mapping")
	}
}
