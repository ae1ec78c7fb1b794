//go:build windows

package store

import "os"

// Windows has no supported Node.js target here; the lock only reserves the file.
func (fl *fileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	fl.f = f
	return nil
}

func (fl *fileLock) Unlock() error {
	if fl.f == nil {
		return nil
	}
	f := fl.f
	fl.f = nil
	return f.Close()
}
