package nodeswitch

import (
	"sync"

	"github.com/kira1928/nodeswitch/pkg/manager"
)

// Version 是工具的当前版本号，发布构建时通过 -ldflags -X 注入
var Version = "dev"

// Options configures a Manager; zero values select the defaults.
type Options = manager.Options

// New 创建一个独立的 Manager 实例
func New(opts Options) (*manager.Manager, error) {
	return manager.New(opts)
}

var instance = sync.OnceValues(func() (*manager.Manager, error) {
	return manager.New(manager.Options{})
})

// Get 返回默认配置下的共享 Manager 实例
func Get() (*manager.Manager, error) {
	return instance()
}
