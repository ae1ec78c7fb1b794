// Package store 管理磁盘上的 versions/<version>/ 目录：安装、删除与枚举。
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kira1928/nodeswitch/pkg/platform"
	"github.com/kira1928/nodeswitch/pkg/version"
)

const (
	// DefaultMirror hosts the official Node.js release archives.
	DefaultMirror = "https://nodejs.org/dist"
	// SoftwareName is the archive name prefix.
	SoftwareName = "node"
	// ArchiveExt is the archive format requested for linux and darwin.
	ArchiveExt = "tar.xz"

	versionsDirName = "versions"
	stagingPrefix   = ".tmp_"
)

var (
	ErrDownload     = errors.New("download failed")
	ErrExtract      = errors.New("extract failed")
	ErrNotInstalled = errors.New("version not installed")
)

// Options 构造 Store 所需的依赖；未设置的项使用默认实现
type Options struct {
	Root       string
	Platform   platform.Platform
	Mirror     string
	Downloader Downloader
	Extractor  Extractor
	Confirmer  Confirmer
}

// Store 是 Installation Store，唯一允许修改 versions/ 的组件
type Store struct {
	root       string
	platform   platform.Platform
	mirror     string
	downloader Downloader
	extractor  Extractor
	confirmer  Confirmer
}

func New(opts Options) *Store {
	s := &Store{
		root:       opts.Root,
		platform:   opts.Platform,
		mirror:     opts.Mirror,
		downloader: opts.Downloader,
		extractor:  opts.Extractor,
		confirmer:  opts.Confirmer,
	}
	if strings.TrimSpace(s.mirror) == "" {
		s.mirror = DefaultMirror
	}
	if s.downloader == nil {
		s.downloader = NewHTTPDownloader()
	}
	if s.extractor == nil {
		s.extractor = ArchiveExtractor{}
	}
	return s
}

// Installed describes one version present in the store.
type Installed struct {
	Version version.Version
	Dir     string
}

func (i Installed) BinDir() string {
	return filepath.Join(i.Dir, "bin")
}

func (s *Store) VersionsDir() string {
	return filepath.Join(s.root, versionsDirName)
}

func (s *Store) VersionDir(v version.Version) string {
	return filepath.Join(s.VersionsDir(), v.String())
}

func (s *Store) BinDir(v version.Version) string {
	return filepath.Join(s.VersionDir(v), "bin")
}

// IsInstalled 以版本目录是否存在为准；安装通过 rename 原子发布，目录存在即完整
func (s *Store) IsInstalled(v version.Version) bool {
	info, err := os.Stat(s.VersionDir(v))
	return err == nil && info.IsDir()
}

// ArchiveURL renders {mirror}/v{version}/node-v{version}-{os}-{arch}.{ext}.
func ArchiveURL(mirror string, v version.Version, p platform.Platform, ext string) string {
	name := fmt.Sprintf("%s-%s-%s-%s.%s", SoftwareName, v.Tag(), p.OS, p.Arch, ext)
	return strings.TrimRight(mirror, "/") + "/" + v.Tag() + "/" + name
}

func (s *Store) lockFor(v version.Version) *fileLock {
	return newFileLock(filepath.Join(s.VersionsDir(), "."+v.String()+".lock"))
}

// Install 下载并解压指定版本。已存在时直接返回；失败时不留下任何版本目录
func (s *Store) Install(ctx context.Context, v version.Version) (Installed, error) {
	inst := Installed{Version: v, Dir: s.VersionDir(v)}
	if err := os.MkdirAll(s.VersionsDir(), 0o755); err != nil {
		return Installed{}, err
	}

	lock := s.lockFor(v)
	if err := lock.TryLock(); err != nil {
		return Installed{}, fmt.Errorf("install %s: %w", v, err)
	}
	defer lock.Unlock()

	if s.IsInstalled(v) {
		return inst, nil
	}

	// 清理残留的临时解压目录
	staging := filepath.Join(s.VersionsDir(), stagingPrefix+v.String())
	if err := os.RemoveAll(staging); err != nil {
		return Installed{}, fmt.Errorf("failed to remove temporary extraction folder: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return Installed{}, err
	}
	published := false
	defer func() {
		if !published {
			if err := os.RemoveAll(staging); err != nil {
				log.Printf("[node@%s] failed to clean up %s: %v", v, staging, err)
			}
		}
	}()

	url := ArchiveURL(s.mirror, v, s.platform, ArchiveExt)
	archive := filepath.Join(s.VersionsDir(), fmt.Sprintf(".download-%s-%s", uuid.New().String(), path.Base(url)))
	defer os.Remove(archive)

	log.Printf("[node@%s] start download with url: %s", v, url)
	if err := s.downloader.Download(ctx, url, archive); err != nil {
		return Installed{}, fmt.Errorf("%w: node %s: %w", ErrDownload, v, err)
	}

	log.Printf("[node@%s] extracting %s", v, filepath.Base(archive))
	if err := s.extractor.Extract(archive, staging); err != nil {
		return Installed{}, fmt.Errorf("%w: node %s: %w", ErrExtract, v, err)
	}
	if info, err := os.Stat(filepath.Join(staging, "bin")); err != nil || !info.IsDir() {
		return Installed{}, fmt.Errorf("%w: node %s: archive has no bin directory", ErrExtract, v)
	}

	if err := os.Rename(staging, inst.Dir); err != nil {
		return Installed{}, fmt.Errorf("failed to move extracted files to %s: %w", inst.Dir, err)
	}
	published = true
	log.Printf("[node@%s] installed to %s", v, inst.Dir)
	return inst, nil
}

// Remove 删除版本目录。requireConfirmation 为 true 时必须先得到确认
func (s *Store) Remove(v version.Version, requireConfirmation bool) error {
	lock := s.lockFor(v)
	if err := lock.TryLock(); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotInstalled, v)
		}
		return fmt.Errorf("remove %s: %w", v, err)
	}
	defer lock.Unlock()

	if !s.IsInstalled(v) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, v)
	}

	if requireConfirmation {
		if s.confirmer == nil {
			return fmt.Errorf("remove %s: confirmation required but no confirmer available", v)
		}
		ok, err := s.confirmer.Confirm(fmt.Sprintf("Remove node %s?", v))
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	// 先移动到垃圾目录再删除，避免删除中途留下半个版本目录
	versionDir := s.VersionDir(v)
	trash := filepath.Join(s.VersionsDir(), fmt.Sprintf(".trash-%s-%s", v, uuid.New().String()))
	if err := os.Rename(versionDir, trash); err != nil {
		return fmt.Errorf("failed to move %s to trash: %w", versionDir, err)
	}
	if err := os.RemoveAll(trash); err != nil {
		log.Printf("[node@%s] failed to delete trash folder %s: %v", v, trash, err)
	}
	// 锁文件保留：持锁期间 unlink 会让另一个进程在新文件上拿到同名锁
	return nil
}

// Installed 按版本号升序返回已安装版本；忽略隐藏目录和无法解析的目录名
func (s *Store) Installed() ([]Installed, error) {
	entries, err := os.ReadDir(s.VersionsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var vs []version.Version
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		v, err := version.Parse(e.Name())
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	version.Sort(vs)
	out := make([]Installed, len(vs))
	for i, v := range vs {
		out[i] = Installed{Version: v, Dir: s.VersionDir(v)}
	}
	return out, nil
}

// InstalledVersions is Installed reduced to version identifiers.
func (s *Store) InstalledVersions() ([]version.Version, error) {
	list, err := s.Installed()
	if err != nil {
		return nil, err
	}
	vs := make([]version.Version, len(list))
	for i, inst := range list {
		vs[i] = inst.Version
	}
	return vs, nil
}

// Entry is one line of `list`.
type Entry struct {
	Installed
	IsDefault bool
	IsActive  bool
}

// List annotates installed versions; pass "" when there is no default or active version.
func (s *Store) List(defaultVersion, activeVersion string) ([]Entry, error) {
	list, err := s.Installed()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(list))
	for i, inst := range list {
		name := inst.Version.String()
		out[i] = Entry{
			Installed: inst,
			IsDefault: defaultVersion != "" && name == defaultVersion,
			IsActive:  activeVersion != "" && name == activeVersion,
		}
	}
	return out, nil
}
