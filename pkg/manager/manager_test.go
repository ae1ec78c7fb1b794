package manager

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/kira1928/nodeswitch/pkg/active"
	"github.com/kira1928/nodeswitch/pkg/config"
	"github.com/kira1928/nodeswitch/pkg/index"
	"github.com/kira1928/nodeswitch/pkg/platform"
	"github.com/kira1928/nodeswitch/pkg/resolver"
	"github.com/kira1928/nodeswitch/pkg/store"
	"github.com/kira1928/nodeswitch/pkg/version"
)

const testIndex = "version\tdate\tfiles\tnpm\tv8\tuv\tzlib\topenssl\tmodules\tlts\tsecurity\n" +
	"v22.1.0\t2024-05-02\tlinux-x64\t10.7.0\t-\t-\t-\t-\t127\t-\tfalse\n" +
	"v20.13.1\t2024-05-09\tlinux-x64\t10.5.2\t-\t-\t-\t-\t115\tIron\tfalse\n" +
	"v18.20.0\t2024-03-26\tlinux-x64\t10.5.0\t-\t-\t-\t-\t108\tHydrogen\tfalse\n"

var testPlatform = platform.Platform{OS: "linux", Arch: "x64"}

func buildArchive(t *testing.T, v string) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)
	top := "node-v" + v + "-linux-x64/"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: top + "bin/", Typeflag: tar.TypeDir, Mode: 0o755}))
	body := []byte("#!/bin/sh\necho v" + v + "\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: top + "bin/node", Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(body))}))
	_, err = tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
	return buf.Bytes()
}

type distServer struct {
	*httptest.Server
	indexHits int
	downloads int
}

func newDistServer(t *testing.T) *distServer {
	t.Helper()
	archives := map[string][]byte{}
	for _, v := range []string{"22.1.0", "20.13.1", "18.20.0"} {
		archives["/v"+v+"/node-v"+v+"-linux-x64.tar.xz"] = buildArchive(t, v)
	}
	ds := &distServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.tab" {
			ds.indexHits++
			_, _ = w.Write([]byte(testIndex))
			return
		}
		data, ok := archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		ds.downloads++
		_, _ = w.Write(data)
	}))
	t.Cleanup(ds.Close)
	return ds
}

type fakeDetector struct {
	v   string
	err error
}

func (d fakeDetector) Version(ctx context.Context) (version.Version, error) {
	if d.err != nil {
		return version.Version{}, d.err
	}
	return version.MustParse(d.v), nil
}

type fakeHook struct {
	installed bool
	installs  int
}

func (h *fakeHook) Installed() (bool, error) { return h.installed, nil }

func (h *fakeHook) Install() (bool, error) {
	if h.installed {
		return false, nil
	}
	h.installed = true
	h.installs++
	return true, nil
}

type harness struct {
	m       *Manager
	srv     *distServer
	root    string
	answers []string
	hook    *fakeHook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := newDistServer(t)
	t.Setenv(config.EnvMirror, srv.URL)
	h := &harness{srv: srv, root: t.TempDir(), hook: &fakeHook{}}

	m, err := New(Options{
		Paths:      config.Paths{Root: h.root},
		Platform:   testPlatform,
		Index:      index.NewClient(srv.URL + "/index.tab"),
		Downloader: &store.HTTPDownloader{Client: srv.Client()},
		Confirmer: store.ConfirmFunc(func(string) (bool, error) {
			if len(h.answers) == 0 {
				return false, nil
			}
			a := h.answers[0]
			h.answers = h.answers[1:]
			return a == "y", nil
		}),
		Detector: fakeDetector{err: active.ErrNoRuntime},
		Hook:     h.hook,
	})
	require.NoError(t, err)
	h.m = m
	return h
}

func TestInstallListSetRemove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inst, err := h.m.Install(ctx, "20.13.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.root, "versions", "20.13.1"), inst.Dir)
	assert.FileExists(t, filepath.Join(inst.Dir, "bin", "node"))

	entries, err := h.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "20.13.1", entries[0].Version.String())
	assert.False(t, entries[0].IsDefault)

	sel, err := h.m.Set(ctx, "20", "/usr/bin")
	require.NoError(t, err)
	assert.Equal(t, inst.BinDir(), sel.BinDir)
	assert.Equal(t, inst.BinDir()+string(os.PathListSeparator)+"/usr/bin", sel.Path)

	target, err := os.Readlink(filepath.Join(h.root, "default"))
	require.NoError(t, err)
	assert.Equal(t, inst.Dir, target)

	entries, err = h.m.List(ctx)
	require.NoError(t, err)
	assert.True(t, entries[0].IsDefault)

	h.answers = []string{"y"}
	removed, err := h.m.Remove(ctx, "20.13.1", true)
	require.NoError(t, err)
	assert.Equal(t, "20.13.1", removed.String())

	entries, err = h.m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Lstat(filepath.Join(h.root, "default"))
	assert.True(t, os.IsNotExist(err), "default link must not dangle after removal")
}

func TestInstallResolvesMajorAndLatest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inst, err := h.m.Install(ctx, "18")
	require.NoError(t, err)
	assert.Equal(t, "18.20.0", inst.Version.String())

	inst, err = h.m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "22.1.0", inst.Version.String())
	assert.Equal(t, 2, h.srv.downloads)

	// 已安装时不再下载
	_, err = h.m.Install(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, 2, h.srv.downloads)
}

func TestInstallUnknownVersion(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.Install(context.Background(), "20.1")
	assert.ErrorIs(t, err, resolver.ErrVersionNotFound)
	assert.Zero(t, h.srv.downloads)
}

func TestUseRequiresInstalledVersion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.m.Use(ctx, "20", "/usr/bin")
	assert.ErrorIs(t, err, resolver.ErrVersionNotFound)
	assert.Zero(t, h.srv.downloads, "use must not install")

	_, err = h.m.Install(ctx, "20")
	require.NoError(t, err)
	sel, err := h.m.Use(ctx, "20", "/usr/bin")
	require.NoError(t, err)
	assert.Equal(t, "20.13.1", sel.Version.String())

	_, ok := h.m.switcher.Default()
	assert.False(t, ok, "use must not touch the default link")
}

func TestRemoveDeclined(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.m.Install(ctx, "18")
	require.NoError(t, err)

	h.answers = []string{"Y"}
	_, err = h.m.Remove(ctx, "18", true)
	assert.ErrorIs(t, err, store.ErrAborted)
	assert.DirExists(t, filepath.Join(h.root, "versions", "18.20.0"))

	_, err = h.m.Remove(ctx, "16", true)
	assert.ErrorIs(t, err, resolver.ErrVersionNotFound)

	removed, err := h.m.Remove(ctx, "18", false)
	require.NoError(t, err)
	assert.Equal(t, "18.20.0", removed.String())
	assert.NoDirExists(t, filepath.Join(h.root, "versions", "18.20.0"))
}

func TestAvailable(t *testing.T) {
	h := newHarness(t)
	releases, err := h.m.Available(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 3)
	assert.Equal(t, "Iron", releases[1].LTS)
}

func TestListMarksActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.m.Install(ctx, "18")
	require.NoError(t, err)

	h.m.detector = fakeDetector{v: "18.20.0"}
	entries, err := h.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsActive)

	h.m.detector = fakeDetector{err: errors.New("exit status 1")}
	entries, err = h.m.List(ctx)
	require.NoError(t, err)
	assert.False(t, entries[0].IsActive)
}

func TestAutoOnOff(t *testing.T) {
	h := newHarness(t)

	st, err := h.m.AutoStatus()
	require.NoError(t, err)
	assert.Equal(t, AutoState{}, st)

	st, err = h.m.SetAuto(true)
	require.NoError(t, err)
	assert.Equal(t, AutoState{Enabled: true, HookInstalled: true}, st)
	assert.False(t, st.Drifted())

	st, err = h.m.SetAuto(false)
	require.NoError(t, err)
	assert.Equal(t, AutoState{Enabled: false, HookInstalled: true}, st)
	assert.True(t, st.Drifted())

	// 再次开启不会重复安装 hook
	_, err = h.m.SetAuto(true)
	require.NoError(t, err)
	assert.Equal(t, 1, h.hook.installs)

	cfg, err := config.Load(filepath.Join(h.root, "config"))
	require.NoError(t, err)
	assert.True(t, cfg.AutoSwitchEnabled())
}

func TestHookEnv(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ".nvmrc"), []byte("18\n"), 0o644))

	res, err := h.m.HookEnv(ctx, project, "/usr/bin")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, h.srv.indexHits, "disabled auto switch must not hit the network")

	_, err = h.m.SetAuto(true)
	require.NoError(t, err)

	res, err = h.m.HookEnv(ctx, project, "/usr/bin")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Installed)
	assert.Equal(t, "18.20.0", res.Version.String())
	assert.Equal(t, filepath.Join(h.root, "versions", "18.20.0", "bin")+string(os.PathListSeparator)+"/usr/bin", res.Path)

	res, err = h.m.HookEnv(ctx, project, res.Path)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, h.srv.indexHits)
}
