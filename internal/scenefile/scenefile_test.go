package scenefile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sparrow/internal/core/scene"
)

const door = `
name: door
nodes:
  - name: Door
    instance: true
    extras:
      node: '{"Speed": "{value: 1}"}'
    children:
      - name: Hinge
        extras:
          node: '{"BlueprintKind": "Object"}'
      - name: Panel
        extras:
          scene:
            Hinge: "{target: {name: Hinge}, axis: [0, 1, 0]}"
          mesh: '{"Tags": "[wood]"}'
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecodeAndSpawn(t *testing.T) {
	file, err := Decode(strings.NewReader(door))
	require.NoError(t, err)
	assert.Equal(t, "door", file.Name)

	w := scene.NewWorld()
	roots, err := file.Spawn(w)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	root := roots[0]
	_, ok := w.Instance(root)
	assert.True(t, ok)
	children := w.Children(root)
	require.Len(t, children, 2)
	assert.Equal(t, "Hinge", w.Name(children[0]))

	blob, ok := w.Extras(children[1], scene.LevelScene)
	require.True(t, ok)
	assert.Contains(t, blob, "Hinge:")
	mesh, ok := w.Extras(children[1], scene.LevelMesh)
	require.True(t, ok)
	assert.Equal(t, `{"Tags": "[wood]"}`, mesh)

	assert.Equal(t, []scene.NodeID{root, children[0], children[1]}, w.DrainAddedExtras())
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown field": "nodes: [{name: A, colour: red}]",
		"unnamed":       "nodes: [{extras: {node: '{}'}}]",
		"bad level":     "nodes: [{name: A, extras: {skin: '{}'}}]",
		"list extras":   "nodes: [{name: A, extras: {node: [1]}}]",
	}
	for name, text := range cases {
		_, err := Decode(strings.NewReader(text))
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestDecodeJSON(t *testing.T) {
	file, err := Decode(strings.NewReader(`{"name": "j", "nodes": [{"name": "A", "extras": {"node": "{\"Speed\": \"{value: 1}\"}"}}]}`))
	require.NoError(t, err)
	require.Len(t, file.Nodes, 1)
	assert.Equal(t, `{"Speed": "{value: 1}"}`, file.Nodes[0].Extras["node"].Value)
}

func TestLoadAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a", "b", "c", "d"} {
		paths = append(paths, write(t, dir, name+".yaml", "name: "+name+"\nnodes: [{name: Root}]\n"))
	}

	files, err := LoadAll(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, files, 4)
	for i, f := range files {
		assert.Equal(t, paths[i], f.Path)
		assert.Equal(t, []string{"a", "b", "c", "d"}[i], f.Name)
	}

	_, err = LoadAll(context.Background(), append(paths, filepath.Join(dir, "missing.yaml")), 2)
	assert.Error(t, err)
}
