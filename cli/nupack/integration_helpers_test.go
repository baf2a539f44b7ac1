//go:build integration

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/version"
)

// feedPackage describes one package file of a test feed.
type feedPackage struct {
	id          string
	ver         string
	description string
	deps        map[string]string
	libs        []string
}

// buildFeed writes the packages into a new folder under root and returns it.
func buildFeed(t *testing.T, root string, pkgs ...feedPackage) string {
	t.Helper()
	dir := filepath.Join(root, "feed")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, p := range pkgs {
		writeFeedPackage(t, dir, p)
	}
	return dir
}

func writeFeedPackage(t *testing.T, dir string, p feedPackage) string {
	t.Helper()
	v := version.MustParse(p.ver)
	meta := &model.PackageMetadata{
		Identity:    model.NewIdentity(p.id, v),
		Description: p.description,
		Authors:     []string{"nupack tests"},
	}
	for id, spec := range p.deps {
		meta.Dependencies = append(meta.Dependencies, model.Dependency{ID: id, Spec: version.MustParseSpec(spec)})
	}
	files := map[string]string{"content/readme.txt": p.id}
	for _, lib := range p.libs {
		files["lib/"+lib+"/"+p.id+".dll"] = "dll"
	}
	path := filepath.Join(dir, archive.PackageFileName(p.id, v))
	require.NoError(t, archive.NewManager().BuildPackage(context.Background(), archive.NewManifest(meta), files, path))
	return path
}

// writeConfig writes a config with one enabled source per feed and returns
// its path. The project file lives next to it.
func writeConfig(t *testing.T, root string, extraSettings string, feeds ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("settings:\n")
	b.WriteString("  log_level: error\n")
	b.WriteString("  project_file: " + filepath.Join(root, "packages.json") + "\n")
	b.WriteString(extraSettings)
	b.WriteString("sources:\n")
	for i, feed := range feeds {
		b.WriteString("  - name: feed" + string(rune('a'+i)) + "\n")
		b.WriteString("    path: " + feed + "\n")
	}
	path := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

// writeProject saves references (id -> version) to root/packages.json. deps
// maps an id to the dependencies recorded with its reference.
func writeProject(t *testing.T, root string, refs map[string]string, deps map[string]map[string]string) {
	t.Helper()
	store := project.NewStore(filepath.Join(root, "packages.json"))
	for id, ver := range refs {
		ref := &project.Reference{ID: id, Version: version.MustParse(ver)}
		for depID, spec := range deps[id] {
			ref.Dependencies = append(ref.Dependencies, model.Dependency{ID: depID, Spec: version.MustParseSpec(spec)})
		}
		store.Add(ref)
	}
	require.NoError(t, store.Save(context.Background()))
}

// projectVersions loads root/packages.json as id -> version.
func projectVersions(t *testing.T, root string) map[string]string {
	t.Helper()
	store, err := project.Load(filepath.Join(root, "packages.json"))
	require.NoError(t, err)
	out := make(map[string]string)
	for _, ref := range store.References {
		out[ref.ID] = ref.Version.String()
	}
	return out
}

// runCLI executes the root command and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
