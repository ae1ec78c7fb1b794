package autoswitch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kira1928/nodeswitch/pkg/resolver"
	"github.com/kira1928/nodeswitch/pkg/store"
	"github.com/kira1928/nodeswitch/pkg/switcher"
	"github.com/kira1928/nodeswitch/pkg/version"
)

type flag bool

func (f flag) AutoSwitchEnabled() bool { return bool(f) }

type fakeStore struct {
	installed []version.Version
	installs  []string
}

func (f *fakeStore) InstalledVersions() ([]version.Version, error) {
	return f.installed, nil
}

func (f *fakeStore) Install(ctx context.Context, v version.Version) (store.Installed, error) {
	f.installs = append(f.installs, v.String())
	f.installed = append(f.installed, v)
	return store.Installed{Version: v}, nil
}

type fakeIndex struct {
	versions []version.Version
	calls    int
}

func (f *fakeIndex) FetchIndex(ctx context.Context) ([]version.Version, error) {
	f.calls++
	return f.versions, nil
}

const versionsDir = "/ns/versions"

func setup(t *testing.T, enabled bool, markerContent string, installed ...string) (*Trigger, *fakeStore, *fakeIndex, string) {
	t.Helper()
	dir := t.TempDir()
	if markerContent != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".nvmrc"), []byte(markerContent), 0o644))
	}
	fs := &fakeStore{}
	for _, v := range installed {
		fs.installed = append(fs.installed, version.MustParse(v))
	}
	idx := &fakeIndex{versions: []version.Version{version.MustParse("22.1.0"), version.MustParse("20.13.1"), version.MustParse("18.20.0")}}
	tr := &Trigger{
		Settings: flag(enabled),
		Store:    fs,
		Index:    idx,
		Switcher: switcher.New("/ns", versionsDir),
	}
	return tr, fs, idx, dir
}

func TestDisabledIsNoop(t *testing.T) {
	tr, fs, idx, dir := setup(t, false, "20\n")

	res, err := tr.Run(context.Background(), dir, "/usr/bin")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Path)
	assert.Zero(t, idx.calls, "no network call when auto switch is off")
	assert.Empty(t, fs.installs)
}

func TestNoMarkerIsNoop(t *testing.T) {
	tr, _, idx, dir := setup(t, true, "", "20.13.1")

	res, err := tr.Run(context.Background(), dir, "/usr/bin")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, idx.calls)
}

func TestSwitchesToInstalledVersion(t *testing.T) {
	tr, fs, idx, dir := setup(t, true, "18\n", "18.17.1", "18.20.0", "20.13.1")

	res, err := tr.Run(context.Background(), dir, versionsDir+"/20.13.1/bin:/usr/bin")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "18.20.0", res.Version.String())
	assert.Equal(t, versionsDir+"/18.20.0/bin:/usr/bin", res.Path)
	assert.Zero(t, idx.calls)
	assert.Empty(t, fs.installs)
}

func TestAlreadyActiveIsNoop(t *testing.T) {
	tr, _, idx, dir := setup(t, true, "20.13.1", "20.13.1")

	res, err := tr.Run(context.Background(), dir, versionsDir+"/20.13.1/bin:/usr/bin")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "20.13.1", res.Version.String())
	assert.Zero(t, idx.calls)
}

func TestInstallsMissingVersion(t *testing.T) {
	tr, fs, idx, dir := setup(t, true, "22\n", "18.20.0")

	res, err := tr.Run(context.Background(), dir, "/usr/bin")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Installed)
	assert.Equal(t, []string{"22.1.0"}, fs.installs)
	assert.Equal(t, 1, idx.calls)
	assert.True(t, strings.HasPrefix(res.Path, versionsDir+"/22.1.0/bin"))
}

func TestUnrecognizedMarkerIsIgnored(t *testing.T) {
	for _, content := range []string{"lts/iron\n", "lts/*\n", "node\n"} {
		tr, fs, idx, dir := setup(t, true, content, "20.13.1")

		res, err := tr.Run(context.Background(), dir, "/usr/bin")
		require.NoError(t, err, content)
		assert.False(t, res.Changed, content)
		assert.Zero(t, idx.calls, content)
		assert.Empty(t, fs.installs, content)
	}
}

func TestPartialPrefixNotInstalledStaysOffline(t *testing.T) {
	tr, fs, idx, dir := setup(t, true, "20.13\n")

	for range 3 {
		res, err := tr.Run(context.Background(), dir, "/usr/bin")
		assert.ErrorIs(t, err, resolver.ErrVersionNotFound)
		assert.False(t, res.Changed)
	}
	assert.Zero(t, idx.calls, "a partial prefix can never be installed, so the index is not fetched")
	assert.Empty(t, fs.installs)
}

func TestExactMarkerNotInstalledIsInstalled(t *testing.T) {
	tr, fs, idx, dir := setup(t, true, "v20.13.1\n", "18.20.0")

	res, err := tr.Run(context.Background(), dir, "/usr/bin")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"20.13.1"}, fs.installs)
	assert.Equal(t, 1, idx.calls)
}
