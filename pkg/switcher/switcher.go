// Package switcher computes PATH values for a selected version and manages
// the `default` symlink. It never touches the process environment itself.
package switcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kira1928/nodeswitch/pkg/version"
)

// ErrNotInstalled 表示目标版本目录（含 bin）不存在
var ErrNotInstalled = errors.New("version not installed")

// DefaultLinkName is the symlink under the root directory.
const DefaultLinkName = "default"

// isManagedSegment 判断 PATH 片段是否为 <versionsDir>/<version>/bin
func isManagedSegment(versionsDir, segment string) bool {
	if segment == "" {
		return false
	}
	clean := filepath.Clean(segment)
	if filepath.Base(clean) != "bin" {
		return false
	}
	return filepath.Dir(filepath.Dir(clean)) == filepath.Clean(versionsDir)
}

// ComputePath 去掉 currentPath 中所有由本工具注入的片段，再把 binDir 放到最前。
// 对同一 binDir 重复应用结果不变。
func ComputePath(versionsDir, binDir, currentPath string) string {
	sep := string(os.PathListSeparator)
	segments := []string{binDir}
	if currentPath != "" {
		for _, seg := range strings.Split(currentPath, sep) {
			if isManagedSegment(versionsDir, seg) {
				continue
			}
			segments = append(segments, seg)
		}
	}
	return strings.Join(segments, sep)
}

// ActiveFromPath returns the version whose bin directory appears first in
// currentPath, which is the node the shell would run.
func ActiveFromPath(versionsDir, currentPath string) (version.Version, bool) {
	for _, seg := range filepath.SplitList(currentPath) {
		if !isManagedSegment(versionsDir, seg) {
			continue
		}
		v, err := version.Parse(filepath.Base(filepath.Dir(filepath.Clean(seg))))
		if err != nil {
			continue
		}
		return v, true
	}
	return version.Version{}, false
}

// Switcher 管理 <root>/default 符号链接
type Switcher struct {
	root        string
	versionsDir string
}

func New(root, versionsDir string) *Switcher {
	return &Switcher{root: root, versionsDir: versionsDir}
}

func (s *Switcher) LinkPath() string {
	return filepath.Join(s.root, DefaultLinkName)
}

func (s *Switcher) BinDir(v version.Version) string {
	return filepath.Join(s.versionsDir, v.String(), "bin")
}

// ComputePath is the package-level ComputePath bound to this switcher's store.
func (s *Switcher) ComputePath(v version.Version, currentPath string) string {
	return ComputePath(s.versionsDir, s.BinDir(v), currentPath)
}

func (s *Switcher) ActiveFromPath(currentPath string) (version.Version, bool) {
	return ActiveFromPath(s.versionsDir, currentPath)
}

// afterSwap runs between the rename and the post-check; tests use it to
// remove the target at the worst moment.
var afterSwap = func() {}

// SetDefault 原子地把 default 链接指向目标版本目录：先创建临时链接再 rename 覆盖，
// 任一步失败时旧链接保持不变。rename 之后再次检查目标，若目标在此期间被删除则恢复旧链接
func (s *Switcher) SetDefault(v version.Version) error {
	target := filepath.Join(s.versionsDir, v.String())
	if !hasBin(target) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, v)
	}
	previous, _ := os.Readlink(s.LinkPath())

	if err := s.pointTo(target); err != nil {
		return err
	}
	afterSwap()
	if hasBin(target) {
		return nil
	}

	if previous != "" && hasBin(previous) {
		if err := s.pointTo(previous); err != nil {
			return fmt.Errorf("%w: %s, and restoring %s failed: %v", ErrNotInstalled, v, previous, err)
		}
	} else if err := os.Remove(s.LinkPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s, and removing the dangling link failed: %v", ErrNotInstalled, v, err)
	}
	return fmt.Errorf("%w: %s was removed while switching", ErrNotInstalled, v)
}

func hasBin(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "bin"))
	return err == nil && info.IsDir()
}

// pointTo replaces the link with one to target via a temporary link and rename.
func (s *Switcher) pointTo(target string) error {
	tmp := filepath.Join(s.root, fmt.Sprintf(".%s-%s", DefaultLinkName, uuid.New().String()))
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("failed to create temporary link: %w", err)
	}
	if err := os.Rename(tmp, s.LinkPath()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.LinkPath(), err)
	}
	return nil
}

// Default reports the version the default link points to.
func (s *Switcher) Default() (version.Version, bool) {
	target, err := os.Readlink(s.LinkPath())
	if err != nil {
		return version.Version{}, false
	}
	v, err := version.Parse(filepath.Base(target))
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// ClearDefault removes the link if it points at v.
func (s *Switcher) ClearDefault(v version.Version) error {
	current, ok := s.Default()
	if !ok || !current.Equal(v) {
		return nil
	}
	if err := os.Remove(s.LinkPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
