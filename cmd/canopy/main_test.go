package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "canopy version "+canopy.Version)
}

func TestDocumentLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "--dir", dir, "run", "home", "elements/create", "--args", `{"type":"section","label":"Hero"}`)
	require.NoError(t, err)
	var section map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &section))
	sectionID, _ := section["id"].(string)
	require.NotEmpty(t, sectionID)

	_, err = execute(t, "--dir", dir, "run", "home", "elements/create", "--args", `{"type":"heading","parentId":"`+sectionID+`"}`)
	require.NoError(t, err)

	out, err = execute(t, "--dir", dir, "doc", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "- home")

	out, err = execute(t, "--dir", dir, "doc", "tree", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "home (2 elements)")
	assert.Contains(t, out, `└── section "Hero" (`+sectionID+`)`)
	assert.Contains(t, out, "    └── heading (")

	out, err = execute(t, "--dir", dir, "doc", "tree", "home", "--mermaid")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = execute(t, "--dir", dir, "doc", "inspect", "home")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "home"`)

	_, err = execute(t, "--dir", dir, "run", "home", "elements/create", "--args", `{"type":"text","parentId":"missing"}`)
	assert.Error(t, err)

	out, err = execute(t, "--dir", dir, "doc", "rm", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed document 'home'")

	out, err = execute(t, "--dir", dir, "doc", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestRun_InvalidArgs(t *testing.T) {
	_, err := execute(t, "--dir", t.TempDir(), "run", "home", "ping", "--args", "{")
	assert.ErrorContains(t, err, "invalid --args")
}

func TestCatalog(t *testing.T) {
	out, err := execute(t, "--dir", t.TempDir(), "catalog", "--json")
	require.NoError(t, err)

	var descs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	assert.NotEmpty(t, descs)
}

func TestDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"draggedId": "d",
		"active": {"x": 0, "y": 0, "width": 40, "height": 40},
		"candidates": [
			{"id": "box", "rect": {"x": 0, "y": 0, "width": 100, "height": 100}, "alive": true, "isContainer": true}
		]
	}`), 0644))

	out, err := execute(t, "detect", path, "--debug=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "box"`)

	out, err = execute(t, "detect", path, "--debug")
	require.NoError(t, err)
	assert.Contains(t, out, `"smart"`)
}
