// Package manager composes the index client, resolver, store, switcher and
// auto-switch trigger into one API with a method per command.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kira1928/nodeswitch/pkg/active"
	"github.com/kira1928/nodeswitch/pkg/autoswitch"
	"github.com/kira1928/nodeswitch/pkg/config"
	"github.com/kira1928/nodeswitch/pkg/index"
	"github.com/kira1928/nodeswitch/pkg/platform"
	"github.com/kira1928/nodeswitch/pkg/resolver"
	"github.com/kira1928/nodeswitch/pkg/shellhook"
	"github.com/kira1928/nodeswitch/pkg/store"
	"github.com/kira1928/nodeswitch/pkg/switcher"
	"github.com/kira1928/nodeswitch/pkg/version"
	"golang.org/x/term"
)

// AvailableMajors is how many release lines `available` shows.
const AvailableMajors = 5

// Index is the remote catalog as the manager uses it.
type Index interface {
	FetchIndex(ctx context.Context) ([]version.Version, error)
	FetchTopMajors(ctx context.Context, n int) ([]index.Release, error)
}

// ActiveDetector reports the runtime version the invoking shell would run.
type ActiveDetector interface {
	Version(ctx context.Context) (version.Version, error)
}

// HookInstaller installs the shell hook into a profile.
type HookInstaller interface {
	Installed() (bool, error)
	Install() (bool, error)
}

// Options 中未设置的依赖会使用默认实现
type Options struct {
	Paths      config.Paths // zero value resolves from the environment
	Platform   platform.Platform
	Index      Index
	Downloader store.Downloader
	Extractor  store.Extractor
	Confirmer  store.Confirmer
	Detector   ActiveDetector
	Hook       HookInstaller
}

type Manager struct {
	paths    config.Paths
	cfg      *config.Config
	index    Index
	store    *store.Store
	switcher *switcher.Switcher
	detector ActiveDetector
	hook     HookInstaller
	hookErr  error
}

func New(opts Options) (*Manager, error) {
	paths := opts.Paths
	if paths.Root == "" {
		var err error
		if paths, err = config.ResolvePaths(); err != nil {
			return nil, err
		}
	}

	p := opts.Platform
	if p.OS == "" {
		var err error
		if p, err = platform.Detect(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(paths.ConfigFile())
	if err != nil {
		return nil, err
	}

	m := &Manager{
		paths:    paths,
		cfg:      cfg,
		index:    opts.Index,
		switcher: switcher.New(paths.Root, paths.VersionsDir()),
		detector: opts.Detector,
		hook:     opts.Hook,
	}
	if m.index == nil {
		m.index = index.NewClient(cfg.EffectiveIndexURL())
	}
	if m.detector == nil {
		m.detector = active.NewDetector()
	}
	if m.hook == nil {
		m.hook, m.hookErr = defaultHook()
	}
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = stdinConfirmer()
	}
	m.store = store.New(store.Options{
		Root:       paths.Root,
		Platform:   p,
		Mirror:     cfg.EffectiveMirror(),
		Downloader: opts.Downloader,
		Extractor:  opts.Extractor,
		Confirmer:  confirmer,
	})
	return m, nil
}

// stdinConfirmer 只在交互终端上打印提示，管道输入时静默读取一行
func stdinConfirmer() store.Confirmer {
	c := &store.LineConfirmer{In: os.Stdin}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		c.Out = os.Stderr
	}
	return c
}

// defaultHook 根据 $SHELL 选择 profile 文件
func defaultHook() (HookInstaller, error) {
	shell, err := shellhook.DetectShell(os.Getenv("SHELL"))
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	profile, err := shellhook.ProfilePath(shell, home)
	if err != nil {
		return nil, err
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &shellhook.Installer{ProfilePath: profile, Shell: shell, Exe: exe}, nil
}

func (m *Manager) Paths() config.Paths {
	return m.paths
}

// DefaultBin is the bin directory behind the default link.
func (m *Manager) DefaultBin() string {
	return filepath.Join(m.switcher.LinkPath(), "bin")
}

// Available returns releases of the most recent major lines, newest first.
func (m *Manager) Available(ctx context.Context) ([]index.Release, error) {
	return m.index.FetchTopMajors(ctx, AvailableMajors)
}

// Install resolves token against the remote index and installs the result.
func (m *Manager) Install(ctx context.Context, token string) (store.Installed, error) {
	v, err := resolver.Resolve(ctx, token, resolver.Context{Source: resolver.Remote, Index: m.index})
	if err != nil {
		return store.Installed{}, err
	}
	if m.store.IsInstalled(v) {
		log.Printf("[node@%s] already installed", v)
	}
	return m.store.Install(ctx, v)
}

// Latest installs the newest published version.
func (m *Manager) Latest(ctx context.Context) (store.Installed, error) {
	return m.Install(ctx, resolver.TokenLatest)
}

// Selection is the result of use/set: what the shell should apply.
type Selection struct {
	Version version.Version
	BinDir  string
	Path    string
}

func (m *Manager) resolveInstalled(ctx context.Context, token string) (version.Version, error) {
	installed, err := m.store.InstalledVersions()
	if err != nil {
		return version.Version{}, err
	}
	return resolver.Resolve(ctx, token, resolver.Context{Source: resolver.Local, Installed: installed})
}

func (m *Manager) selection(v version.Version, currentPath string) Selection {
	return Selection{
		Version: v,
		BinDir:  m.store.BinDir(v),
		Path:    m.switcher.ComputePath(v, currentPath),
	}
}

// Use selects an installed version for the current shell only.
func (m *Manager) Use(ctx context.Context, token, currentPath string) (Selection, error) {
	v, err := m.resolveInstalled(ctx, token)
	if err != nil {
		return Selection{}, err
	}
	return m.selection(v, currentPath), nil
}

// Set repoints the default link and also selects the version for the current shell.
func (m *Manager) Set(ctx context.Context, token, currentPath string) (Selection, error) {
	v, err := m.resolveInstalled(ctx, token)
	if err != nil {
		return Selection{}, err
	}
	if err := m.switcher.SetDefault(v); err != nil {
		return Selection{}, err
	}
	log.Printf("[node@%s] default link now points to %s", v, m.store.VersionDir(v))
	return m.selection(v, currentPath), nil
}

// Remove deletes an installed version, asking first when requireConfirmation
// is set. If the default link pointed to it, the link is removed as well.
func (m *Manager) Remove(ctx context.Context, token string, requireConfirmation bool) (version.Version, error) {
	v, err := m.resolveInstalled(ctx, token)
	if err != nil {
		return version.Version{}, err
	}
	if err := m.store.Remove(v, requireConfirmation); err != nil {
		return version.Version{}, err
	}
	if err := m.switcher.ClearDefault(v); err != nil {
		return v, fmt.Errorf("removed %s but failed to clear default link: %w", v, err)
	}
	return v, nil
}

// List returns installed versions annotated with default and active flags.
func (m *Manager) List(ctx context.Context) ([]store.Entry, error) {
	var def, act string
	if v, ok := m.switcher.Default(); ok {
		def = v.String()
	}
	if v, err := m.detector.Version(ctx); err == nil {
		act = v.String()
	} else if !errors.Is(err, active.ErrNoRuntime) {
		log.Printf("failed to query active node version: %v", err)
	}
	return m.store.List(def, act)
}

// AutoState is the auto-switch flag and the hook installation state. They
// are reported separately because either may be changed without the other.
type AutoState struct {
	Enabled       bool
	HookInstalled bool
}

func (s AutoState) Drifted() bool {
	return s.Enabled != s.HookInstalled
}

func (m *Manager) AutoStatus() (AutoState, error) {
	st := AutoState{Enabled: m.cfg.AutoSwitchEnabled()}
	if m.hook == nil {
		return st, nil
	}
	ok, err := m.hook.Installed()
	if err != nil {
		return st, err
	}
	st.HookInstalled = ok
	return st, nil
}

// SetAuto 写入开关；开启时顺便安装 hook，关闭时保留 hook（hook 在开关关闭时是空操作）
func (m *Manager) SetAuto(on bool) (AutoState, error) {
	if err := m.cfg.SetAutoSwitch(on); err != nil {
		return AutoState{}, err
	}
	if on {
		if _, err := m.Init(); err != nil {
			log.Printf("auto switch enabled but hook not installed: %v", err)
		}
	}
	return m.AutoStatus()
}

// Init installs the shell hook. It reports false when the hook was already present.
func (m *Manager) Init() (bool, error) {
	if m.hook == nil {
		return false, fmt.Errorf("cannot install shell hook: %w", m.hookErr)
	}
	return m.hook.Install()
}

// HookEnv runs the auto-switch trigger for the prompt hook.
func (m *Manager) HookEnv(ctx context.Context, cwd, currentPath string) (autoswitch.Result, error) {
	t := &autoswitch.Trigger{
		Settings: m.cfg,
		Store:    m.store,
		Index:    m.index,
		Switcher: m.switcher,
	}
	return t.Run(ctx, cwd, currentPath)
}
