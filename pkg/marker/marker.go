// Package marker reads the per-project version pin from the working directory.
package marker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Names 按优先级排列：两个文件同时存在时只读取 .nvmrc
var Names = []string{".nvmrc", ".node-version"}

// Marker is a found project marker file.
type Marker struct {
	Path  string
	Token string
}

// Find looks for a marker in dir only; parent directories are not searched.
// ok is false when no marker exists or the marker is empty.
func Find(dir string) (m Marker, ok bool, err error) {
	for _, name := range Names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Marker{}, false, fmt.Errorf("read %s: %w", path, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return Marker{}, false, nil
		}
		return Marker{Path: path, Token: token}, true, nil
	}
	return Marker{}, false, nil
}
