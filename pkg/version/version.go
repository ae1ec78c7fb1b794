// Package version 定义 Node.js 版本号（VersionId）及其数值排序规则。
package version

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
)

// Version 是一个 MAJOR.MINOR.PATCH 形式的具体版本号
type Version struct {
	sv semver.Version
}

// Parse 解析形如 "20.13.1" 或 "v20.13.1" 的版本号，必须包含三个数字分量
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	sv, err := semver.Parse(raw)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{sv: sv}, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return v.sv.String()
}

// Tag returns the version with the leading "v" used in download URLs.
func (v Version) Tag() string {
	return "v" + v.sv.String()
}

func (v Version) Major() uint64 {
	return v.sv.Major
}

// Compare 按分量数值比较：v < o 返回 -1，相等返回 0，v > o 返回 1
func (v Version) Compare(o Version) int {
	return v.sv.Compare(o.sv)
}

func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Sort 原地升序排序
func Sort(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].Less(vs[j])
	})
}

// SortDesc 原地降序排序（最新版本在前）
func SortDesc(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[j].Less(vs[i])
	})
}

// Latest returns the highest version in vs.
func Latest(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if best.Less(v) {
			best = v
		}
	}
	return best, true
}
