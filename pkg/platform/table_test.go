package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

const testTable = `profiles:
  - name: Profile2
    frameworks:
      - ".NetCore, Version=v4.5"
      - "Silverlight, Version=v3.0"
      - "WindowsPhone, Version=v7.1"
`

func TestLoadTableAndParseNamed(t *testing.T) {
	table, err := LoadTable(strings.NewReader(testTable))
	require.NoError(t, err)
	assert.Equal(t, []string{"Profile2"}, table.Names())

	p, err := table.Parse("Profile2")
	require.NoError(t, err)
	assert.Equal(t, "Profile2", p.Name())
	require.Equal(t, 3, p.Len())

	targets := p.Targets()
	assert.Equal(t, ".NetCore", targets[0].Identifier)
	assert.Equal(t, "4.5", targets[0].Version.String())
	assert.Equal(t, "Silverlight", targets[1].Identifier)
	assert.Equal(t, "3.0", targets[1].Version.String())
	assert.Equal(t, "WindowsPhone", targets[2].Identifier)
	assert.Equal(t, "7.1", targets[2].Version.String())

	full, err := table.Parse(".NETPortable, Version=v4.0, Profile=Profile2")
	require.NoError(t, err)
	assert.Same(t, p, full)

	_, err = table.Parse(".NETPortable, Version=v4.0, Profile=Profile99")
	assert.ErrorIs(t, err, errutils.ErrParse)
}

func TestTableParseFallsBackToCompact(t *testing.T) {
	table := NewProfileTable()

	p, err := table.Parse("portable-net45+sl4")
	require.NoError(t, err)
	assert.Equal(t, "net45+sl4", p.String())

	p, err = table.Parse("wp7")
	require.NoError(t, err)
	assert.Equal(t, "wp7", p.String())

	_, err = table.Parse("  ")
	assert.ErrorIs(t, err, errutils.ErrParse)
}

func TestLoadTableErrors(t *testing.T) {
	_, err := LoadTable(strings.NewReader("profiles:\n  - frameworks: [\".NETFramework, Version=v4.0\"]\n"))
	assert.ErrorIs(t, err, errutils.ErrParse)

	_, err = LoadTable(strings.NewReader("profiles:\n  - name: Bad\n    frameworks: [\"net, Version=vZ\"]\n"))
	assert.ErrorIs(t, err, errutils.ErrParse)

	_, err = LoadTable(strings.NewReader("profiles: {"))
	assert.Error(t, err)

	empty, err := LoadTable(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestLoadTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testTable), 0o600))

	table, err := LoadTableFile(path)
	require.NoError(t, err)
	_, ok := table.Lookup("profile2")
	assert.True(t, ok)

	_, err = LoadTableFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultTableInjection(t *testing.T) {
	builtin := DefaultTable()
	require.Greater(t, builtin.Len(), 10)

	p, err := Parse(".NETPortable,Version=v4.5,Profile=Profile259")
	require.NoError(t, err)
	assert.True(t, p.Supports(mustTarget(t, "net46")))

	custom, err := LoadTable(strings.NewReader(testTable))
	require.NoError(t, err)
	restore := SwapDefaultTable(custom)

	p, err = Parse("Profile2")
	require.NoError(t, err)
	assert.Equal(t, "netcore45+sl3+wp71", p.String())
	_, err = Parse("Profile259")
	assert.Error(t, err)

	restore()
	assert.Same(t, builtin, DefaultTable())
}

func TestMerge(t *testing.T) {
	table := NewProfileTable()
	table.Add("Custom", mustParse(t, "net45"))

	other, err := LoadTable(strings.NewReader(testTable))
	require.NoError(t, err)
	table.Merge(other)

	assert.Equal(t, []string{"Custom", "Profile2"}, table.Names())
}

func TestBuiltinProfilesCompatibility(t *testing.T) {
	p, ok := BuiltinTable().Lookup("Profile78")
	require.True(t, ok)

	project := mustParse(t, "net45")
	assert.True(t, p.IsCompatibleWith(project))
	assert.False(t, p.IsCompatibleWith(mustParse(t, "sl5")))
}
