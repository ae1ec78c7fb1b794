package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

// 配置文件中的键
const (
	KeyAutoSwitch = "AUTO_SWITCH"
	KeyMirror     = "NODE_MIRROR"
	KeyIndexURL   = "INDEX_URL"
)

// 环境变量
const (
	EnvRoot     = "NODESWITCH_DIR"
	EnvMirror   = "NODESWITCH_NODE_MIRROR"
	EnvIndexURL = "NODESWITCH_INDEX_URL"
)

const (
	defaultRootName = ".nodeswitch"
	configFileName  = "config"
	versionsDirName = "versions"
)

// Paths is the on-disk layout under a single root directory.
type Paths struct {
	Root string
}

// ResolvePaths 使用 NODESWITCH_DIR，否则默认为 ~/.nodeswitch
func ResolvePaths() (Paths, error) {
	if root := strings.TrimSpace(os.Getenv(EnvRoot)); root != "" {
		return Paths{Root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return Paths{Root: filepath.Join(home, defaultRootName)}, nil
}

func (p Paths) VersionsDir() string {
	return filepath.Join(p.Root, versionsDirName)
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.Root, configFileName)
}

// Config holds the persisted settings. Values from the environment override
// the file but are never written back.
type Config struct {
	AutoSwitch bool
	Mirror     string
	IndexURL   string

	path string
	tree *toml.Tree
}

// Load 读取配置文件；文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	tree, err := loadToml(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	c := &Config{path: path, tree: tree}
	c.AutoSwitch = parseSwitch(getString(tree, KeyAutoSwitch))
	c.Mirror = getString(tree, KeyMirror)
	c.IndexURL = getString(tree, KeyIndexURL)
	return c, nil
}

// Effective mirror and index URL after environment overrides.
func (c *Config) EffectiveMirror() string {
	if v := strings.TrimSpace(os.Getenv(EnvMirror)); v != "" {
		return v
	}
	return c.Mirror
}

func (c *Config) EffectiveIndexURL() string {
	if v := strings.TrimSpace(os.Getenv(EnvIndexURL)); v != "" {
		return v
	}
	return c.IndexURL
}

func (c *Config) AutoSwitchEnabled() bool {
	return c.AutoSwitch
}

// SetAutoSwitch 更新开关并立即落盘
func (c *Config) SetAutoSwitch(on bool) error {
	c.AutoSwitch = on
	return c.Save()
}

// Save 先写临时文件再 rename，保证配置文件不会处于半写状态
func (c *Config) Save() error {
	if c.tree == nil {
		tree, err := toml.TreeFromMap(map[string]interface{}{})
		if err != nil {
			return err
		}
		c.tree = tree
	}
	c.tree.Set(KeyAutoSwitch, formatSwitch(c.AutoSwitch))
	setOrDelete(c.tree, KeyMirror, c.Mirror)
	setOrDelete(c.tree, KeyIndexURL, c.IndexURL)

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := c.tree.ToTomlString()
	if err != nil {
		return err
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(data), 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, c.path)
}

// loadToml 优先按 TOML 解析；失败时按 KEY=value / KEY: value 逐行解析，
// 兼容手写或旧格式的配置文件。写回时统一为 TOML
func loadToml(path string) (*toml.Tree, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return toml.TreeFromMap(map[string]interface{}{})
	}
	if err != nil {
		return nil, err
	}
	tree, tomlErr := toml.LoadBytes(b)
	if tomlErr == nil {
		return tree, nil
	}
	values, err := parseKeyValue(string(b))
	if err != nil {
		return nil, fmt.Errorf("%v (as TOML: %w)", err, tomlErr)
	}
	return toml.TreeFromMap(values)
}

func parseKeyValue(content string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			key, value, ok = strings.Cut(line, ":")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected KEY=value", i+1)
		}
		values[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return values, nil
}

func getString(tree *toml.Tree, key string) string {
	v := tree.Get(key)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func setOrDelete(tree *toml.Tree, key, value string) {
	if value == "" {
		if tree.Has(key) {
			_ = tree.Delete(key)
		}
		return
	}
	tree.Set(key, value)
}

// parseSwitch accepts on/off as well as TOML booleans.
func parseSwitch(s string) bool {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func formatSwitch(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
