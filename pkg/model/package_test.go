package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

func TestPackageIdentity(t *testing.T) {
	a := NewIdentity("Newtonsoft.Json", version.MustParse("13.0.1"))
	b := NewIdentity("newtonsoft.json", version.MustParse("13.0.1.0"))
	c := NewIdentity("Newtonsoft.Json", version.MustParse("13.0.2"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "Newtonsoft.Json 13.0.1", a.String())
}

func TestPURLRoundTrip(t *testing.T) {
	id := NewIdentity("Serilog", version.MustParse("2.10.0"))
	purl := id.PURL()
	assert.Equal(t, "pkg:nuget/Serilog@2.10", purl)

	parsed, err := IdentityFromPURL(purl)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(id))

	_, err = IdentityFromPURL("pkg:npm/left-pad@1.0.0")
	assert.ErrorIs(t, err, errutils.ErrParse)

	_, err = IdentityFromPURL("not a purl")
	assert.ErrorIs(t, err, errutils.ErrParse)
}

func TestMetadataCompatibility(t *testing.T) {
	portable, err := platform.ParseCompact("net45+sl4+wp71")
	require.NoError(t, err)
	net40, err := platform.ParseCompact("net40")
	require.NoError(t, err)

	meta := &PackageMetadata{
		Identity:          NewIdentity("Lib", version.MustParse("1.0")),
		SupportedProfiles: []*platform.Profile{net40, portable},
	}

	for _, tc := range []struct {
		target string
		want   bool
	}{
		{"net45", true},
		{"net40", true},
		{"net35", false},
		{"sl5", true},
		{"netcore45", false},
	} {
		target, err := platform.ParseCompact(tc.target)
		require.NoError(t, err)
		assert.Equal(t, tc.want, meta.IsCompatibleWith(target), tc.target)
	}

	neutral := &PackageMetadata{Identity: NewIdentity("Content", version.MustParse("1.0"))}
	assert.True(t, neutral.IsCompatibleWith(net40))
	assert.True(t, meta.IsCompatibleWith(nil))
}

func TestDependsOn(t *testing.T) {
	meta := &PackageMetadata{
		Dependencies: []Dependency{{ID: "Core", Spec: version.MustParseSpec("[1.0, 2.0)")}},
	}
	dep, ok := meta.DependsOn("core")
	require.True(t, ok)
	assert.Equal(t, "[1.0, 2.0)", dep.Spec.String())

	_, ok = meta.DependsOn("Other")
	assert.False(t, ok)
}
