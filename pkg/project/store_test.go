package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/version"
)

func dep(id, spec string) model.Dependency {
	return model.Dependency{ID: id, Spec: version.MustParseSpec(spec)}
}

func candidate(id, ver string, deps ...model.Dependency) *model.PackageMetadata {
	return &model.PackageMetadata{Identity: model.NewIdentity(id, version.MustParse(ver)), Dependencies: deps}
}

// newTestStore returns a store with Core 1.0, Web 1.0 (depends on Core
// [1.0, 2.0)) and Tools 1.0.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))
	s.Add(&Reference{ID: "Core", Version: version.MustParse("1.0")})
	s.Add(&Reference{ID: "Web", Version: version.MustParse("1.0"), Dependencies: []model.Dependency{dep("Core", "[1.0, 2.0)")}})
	s.Add(&Reference{ID: "Tools", Version: version.MustParse("1.0")})
	return s
}

func TestStoreBasics(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, FormatVersion, s.FormatVersion)
	assert.WithinDuration(t, time.Now(), s.LastUpdate, time.Minute)

	ref, ok := s.Find("core")
	require.True(t, ok)
	assert.Equal(t, "1.0", ref.Version.String())
	_, ok = s.Find("missing")
	assert.False(t, ok)

	s.Add(&Reference{ID: "CORE", Version: version.MustParse("1.5")})
	installed, err := s.InstalledReferences(context.Background())
	require.NoError(t, err)
	require.Len(t, installed, 3)
	assert.Equal(t, "CORE 1.5", installed[0].Identity.String())
	assert.Equal(t, "Core", installed[1].Dependencies[0].ID)
}

func TestUpdateReference(t *testing.T) {
	ctx := context.Background()

	t.Run("applies update", func(t *testing.T) {
		s := newTestStore(t)
		res, err := s.UpdateReference(ctx, ReferenceUpdate{
			ID:        "core",
			Spec:      version.AtLeast(version.MustParse("1.0")),
			Candidate: candidate("Core", "1.9", dep("Logging", "[1.0, )")),
		})
		require.NoError(t, err)
		assert.Equal(t, "1.0", res.Previous.String())
		assert.Equal(t, "1.9", res.Current.String())
		assert.Empty(t, res.MissingDependencies, "dependencies are only checked on request")

		ref, _ := s.Find("Core")
		assert.Equal(t, "1.9", ref.Version.String())
		require.Len(t, ref.Dependencies, 1)
	})

	t.Run("dependent constraint", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.UpdateReference(ctx, ReferenceUpdate{
			ID:        "Core",
			Spec:      version.AtLeast(version.MustParse("1.0")),
			Candidate: candidate("Core", "2.0"),
		})
		var cv *errutils.ConstraintViolationError
		require.ErrorAs(t, err, &cv)
		assert.Equal(t, "Web", cv.DependentID)
		assert.Equal(t, "[1.0, 2.0)", cv.Spec)
		assert.ErrorIs(t, err, errutils.ErrConstraintViolation)

		ref, _ := s.Find("Core")
		assert.Equal(t, "1.0", ref.Version.String(), "a refused update leaves the reference alone")
	})

	t.Run("installed dependency constraint", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.UpdateReference(ctx, ReferenceUpdate{
			ID:                 "Web",
			Spec:               version.AtLeast(version.MustParse("1.0")),
			Candidate:          candidate("Web", "2.0", dep("Core", "[2.0, )"), dep("Json", "1.0")),
			UpdateDependencies: true,
		})
		var cv *errutils.ConstraintViolationError
		require.ErrorAs(t, err, &cv)
		assert.Equal(t, "Core", cv.PackageID)
		assert.Equal(t, "Web 2.0", cv.DependentID)
	})

	t.Run("missing dependencies reported", func(t *testing.T) {
		s := newTestStore(t)
		res, err := s.UpdateReference(ctx, ReferenceUpdate{
			ID:                 "Web",
			Spec:               version.AtLeast(version.MustParse("1.0")),
			Candidate:          candidate("Web", "1.2", dep("Core", "[1.0, )"), dep("Json", "1.0")),
			UpdateDependencies: true,
		})
		require.NoError(t, err)
		require.Len(t, res.MissingDependencies, 1)
		assert.Equal(t, "Json", res.MissingDependencies[0].ID)
	})

	t.Run("outside spec", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.UpdateReference(ctx, ReferenceUpdate{
			ID:        "Tools",
			Spec:      version.MustParseSpec("[1.0, 1.1)"),
			Candidate: candidate("Tools", "1.1"),
		})
		assert.ErrorIs(t, err, errutils.ErrConstraintViolation)
	})

	t.Run("prerelease needs permission", func(t *testing.T) {
		s := newTestStore(t)
		u := ReferenceUpdate{ID: "Tools", Spec: version.AtLeast(version.MustParse("1.0")), Candidate: candidate("Tools", "2.0-beta")}
		_, err := s.UpdateReference(ctx, u)
		assert.ErrorIs(t, err, errutils.ErrConstraintViolation)

		u.AllowPrerelease = true
		_, err = s.UpdateReference(ctx, u)
		assert.NoError(t, err)
	})

	t.Run("unknown reference", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.UpdateReference(ctx, ReferenceUpdate{ID: "Nope", Candidate: candidate("Nope", "1.0")})
		assert.ErrorIs(t, err, errutils.ErrReferenceNotFound)
	})

	t.Run("mismatched candidate", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.UpdateReference(ctx, ReferenceUpdate{ID: "Tools", Candidate: candidate("Other", "2.0")})
		assert.ErrorIs(t, err, errutils.ErrConstraintViolation)
	})
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"format_version": "1"`)
	assert.Contains(t, string(raw), `"version": "[1.0, 2.0)"`)

	loaded, err := Load(s.Path())
	require.NoError(t, err)
	require.Len(t, loaded.References, 3)
	web, ok := loaded.Find("web")
	require.True(t, ok)
	assert.True(t, web.Dependencies[0].Spec.Satisfies(version.MustParse("1.5")))
	assert.False(t, web.Dependencies[0].Spec.Satisfies(version.MustParse("2.0")))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, s.References)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	assert.ErrorIs(t, NewStore("").Save(context.Background()), errutils.ErrInvalidConfigPath)
}
