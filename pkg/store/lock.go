package store

import (
	"errors"
	"os"
)

// ErrBusy 表示另一个进程正在安装或删除同一版本
var ErrBusy = errors.New("version is busy: another operation is in progress")

// fileLock is an advisory, per-version lock shared across processes.
// Platform-specific TryLock/Unlock live in lock_unix.go and lock_windows.go.
type fileLock struct {
	path string
	f    *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}
