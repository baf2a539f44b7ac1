package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/version"
)

type pkgDef struct {
	id          string
	ver         string
	description string
	deps        []model.Dependency
	libs        []string
}

// writePackage builds the package described by d into dir and returns its
// file name.
func writePackage(t *testing.T, dir string, d pkgDef) string {
	t.Helper()
	v := version.MustParse(d.ver)
	manifest := archive.NewManifest(&model.PackageMetadata{
		Identity:     model.NewIdentity(d.id, v),
		Description:  d.description,
		Dependencies: d.deps,
	})
	files := map[string]string{"content/readme.txt": d.id}
	for _, lib := range d.libs {
		files["lib/"+lib+"/"+d.id+".dll"] = "dll"
	}
	name := archive.PackageFileName(d.id, v)
	require.NoError(t, archive.NewManager().BuildPackage(context.Background(), manifest, files, filepath.Join(dir, name)))
	return name
}

func newFS(t *testing.T, dir string) *fsutil.PhysicalFileSystem {
	t.Helper()
	fs, err := fsutil.NewPhysicalFileSystem(dir)
	require.NoError(t, err)
	return fs
}

func packageBytes(t *testing.T, d pkgDef) []byte {
	t.Helper()
	dir := t.TempDir()
	name := writePackage(t, dir, d)
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return data
}

func identities(pkgs []*model.PackageMetadata) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Identity.String()
	}
	return out
}
