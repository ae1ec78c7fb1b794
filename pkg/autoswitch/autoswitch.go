// Package autoswitch applies a project's pinned version when the shell
// enters a directory. It runs on every prompt, so the common paths (switch
// disabled, no marker, already active) touch only the local filesystem.
package autoswitch

import (
	"context"
	"errors"
	"log"

	"github.com/kira1928/nodeswitch/pkg/marker"
	"github.com/kira1928/nodeswitch/pkg/resolver"
	"github.com/kira1928/nodeswitch/pkg/store"
	"github.com/kira1928/nodeswitch/pkg/switcher"
	"github.com/kira1928/nodeswitch/pkg/version"
)

// Settings exposes the AUTO_SWITCH flag.
type Settings interface {
	AutoSwitchEnabled() bool
}

// Installer is the subset of *store.Store the trigger needs.
type Installer interface {
	InstalledVersions() ([]version.Version, error)
	Install(ctx context.Context, v version.Version) (store.Installed, error)
}

// Result 描述一次触发的结果；Changed 为 false 时调用方不应修改 PATH
type Result struct {
	Changed   bool
	Version   version.Version
	Path      string
	Marker    string
	Installed bool // true when this run had to install the version
}

type Trigger struct {
	Settings Settings
	Store    Installer
	Index    resolver.IndexFetcher
	Switcher *switcher.Switcher
}

func (t *Trigger) Run(ctx context.Context, dir, currentPath string) (Result, error) {
	if t.Settings == nil || !t.Settings.AutoSwitchEnabled() {
		return Result{}, nil
	}
	m, ok, err := marker.Find(dir)
	if err != nil || !ok {
		return Result{}, err
	}

	// 无法识别的 token（如 lts/*）视为没有 marker，避免每次提示符都报错
	tok, err := resolver.ParseToken(m.Token)
	if err != nil {
		log.Printf("ignoring %s: %v", m.Path, err)
		return Result{}, nil
	}

	installed, err := t.Store.InstalledVersions()
	if err != nil {
		return Result{}, err
	}
	res := Result{Marker: m.Path}

	v, err := resolver.Resolve(ctx, m.Token, resolver.Context{Source: resolver.Local, Installed: installed})
	switch {
	case errors.Is(err, resolver.ErrVersionNotFound) && !installable(tok):
		return Result{}, err
	case errors.Is(err, resolver.ErrVersionNotFound):
		v, err = resolver.Resolve(ctx, m.Token, resolver.Context{Source: resolver.Remote, Index: t.Index})
		if err != nil {
			return Result{}, err
		}
		log.Printf("[node@%s] %s pins a version that is not installed, installing", v, m.Path)
		if _, err := t.Store.Install(ctx, v); err != nil {
			return Result{}, err
		}
		res.Installed = true
	case err != nil:
		return Result{}, err
	}
	res.Version = v

	if current, ok := t.Switcher.ActiveFromPath(currentPath); ok && current.Equal(v) {
		return res, nil
	}
	res.Changed = true
	res.Path = t.Switcher.ComputePath(v, currentPath)
	return res, nil
}

// installable 报告 token 在远端解析时可能命中：latest、主版本号或完整版本号。
// 残缺前缀在远端必须精确匹配，永远不会触发安装，因此不发起网络请求
func installable(tok resolver.Token) bool {
	if tok.Kind != resolver.KindPrefix {
		return true
	}
	_, err := version.Parse(tok.Text)
	return err == nil
}
