// Package platform maps the Go runtime's OS/arch onto Node.js distribution names.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrUnsupportedPlatform 表示当前系统/架构没有对应的 Node.js 发行包，属于致命错误
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform 是 Node.js 发行包命名中使用的 {os}-{arch}
type Platform struct {
	OS   string // linux, darwin
	Arch string // x64, arm64
}

func (p Platform) String() string {
	return p.OS + "-" + p.Arch
}

var osNames = map[string]string{
	"linux":  "linux",
	"darwin": "darwin",
}

var archNames = map[string]string{
	"amd64": "x64",
	"arm64": "arm64",
}

// FromGo 将 GOOS/GOARCH 转换为发行包命名
func FromGo(goos, goarch string) (Platform, error) {
	osName, ok := osNames[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w: os %s", ErrUnsupportedPlatform, goos)
	}
	archName, ok := archNames[goarch]
	if !ok {
		return Platform{}, fmt.Errorf("%w: arch %s", ErrUnsupportedPlatform, goarch)
	}
	return Platform{OS: osName, Arch: archName}, nil
}

// Detect 只在首次调用时探测一次，之后整个进程内结果不变
var Detect = sync.OnceValues(func() (Platform, error) {
	return FromGo(runtime.GOOS, runtime.GOARCH)
})
