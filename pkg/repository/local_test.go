package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

func seedFeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, d := range []pkgDef{
		{id: "Contoso.Core", ver: "1.0"},
		{id: "Contoso.Core", ver: "1.1", libs: []string{"net40"}},
		{id: "Contoso.Core", ver: "2.0-beta"},
		{id: "Contoso.Core", ver: "2.0", libs: []string{"net45"}},
		{id: "Alpha", ver: "0.9"},
	} {
		writePackage(t, dir, d)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.nupkg"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

func TestEnumeratePackages(t *testing.T) {
	repo := NewLocalRepository("feed", newFS(t, seedFeed(t)))
	assert.Equal(t, "feed", repo.Name())

	pkgs, err := repo.EnumeratePackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Alpha 0.9",
		"Contoso.Core 1.0",
		"Contoso.Core 1.1",
		"Contoso.Core 2.0-beta",
		"Contoso.Core 2.0",
	}, identities(pkgs))
	assert.Equal(t, "Contoso.Core.1.1.nupkg", pkgs[2].Path)
}

func TestEnumeratePackagesMissingFolder(t *testing.T) {
	repo := NewLocalRepository("feed", newFS(t, filepath.Join(t.TempDir(), "absent")))
	pkgs, err := repo.EnumeratePackages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestFindPackage(t *testing.T) {
	ctx := context.Background()
	repo := NewLocalRepository("feed", newFS(t, seedFeed(t)))
	net40, err := platform.ParseCompact("net40")
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   Query
		want    string
		missing bool
	}{
		{name: "unbounded picks highest release", query: Query{ID: "contoso.core"}, want: "Contoso.Core 2.0"},
		{name: "prerelease allowed", query: Query{ID: "Contoso.Core", AllowPrerelease: true}, want: "Contoso.Core 2.0"},
		{name: "safe window", query: Query{ID: "Contoso.Core", Spec: version.MustParseSpec("[1.0, 1.1)")}, want: "Contoso.Core 1.0"},
		{name: "minor window", query: Query{ID: "Contoso.Core", Spec: version.MustParseSpec("[1.0, 2.0)")}, want: "Contoso.Core 1.1"},
		{name: "prerelease inside window", query: Query{ID: "Contoso.Core", Spec: version.MustParseSpec("(1.1, 2.0)"), AllowPrerelease: true}, want: "Contoso.Core 2.0-beta"},
		{name: "target filters net45 build", query: Query{ID: "Contoso.Core", Target: net40}, want: "Contoso.Core 1.1"},
		{name: "unknown id", query: Query{ID: "Nope"}, missing: true},
		{name: "empty window", query: Query{ID: "Contoso.Core", Spec: version.MustParseSpec("[3.0, )")}, missing: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := repo.FindPackage(ctx, tt.query)
			if tt.missing {
				assert.ErrorIs(t, err, errutils.ErrPackageNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.Identity.String())
		})
	}
}

func TestFindExactAndExists(t *testing.T) {
	ctx := context.Background()
	repo := NewLocalRepository("feed", newFS(t, seedFeed(t)))

	meta, err := repo.FindExact(ctx, "CONTOSO.CORE", version.MustParse("1.1.0"))
	require.NoError(t, err)
	assert.Equal(t, "Contoso.Core 1.1", meta.Identity.String())

	assert.True(t, repo.Exists(ctx, "alpha", version.MustParse("0.9")))
	assert.False(t, repo.Exists(ctx, "alpha", version.MustParse("1.0")))

	versions, err := repo.FindPackagesByID(ctx, "contoso.core")
	require.NoError(t, err)
	assert.Len(t, versions, 4)
}

func TestReadMetadataIsMemoized(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	name := writePackage(t, dir, pkgDef{id: "A", ver: "1.0"})
	repo := NewLocalRepository("feed", newFS(t, dir))

	first, err := repo.ReadMetadata(ctx, name)
	require.NoError(t, err)
	second, err := repo.ReadMetadata(ctx, name)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = repo.ReadMetadata(ctx, "missing.nupkg")
	assert.Error(t, err)
}
