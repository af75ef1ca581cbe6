package configwatcher

import (
	"log"
	"path/filepath"
	"time"

	"runsight_backend/internal/config"
	"runsight_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reload 收到新配置时回调，在 watcher 的 goroutine 里执行
type Reload func(cfg *config.Config)

// WatchConfig 监听配置文件变更并重新加载。
// 监听所在目录而不是文件本身，编辑器保存时常用 rename 替换文件。
func WatchConfig(configPath string, reload Reload) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal("Failed to create config watcher:", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		log.Fatal("Failed to get absolute path:", err)
	}
	dir := filepath.Dir(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Fatal("Failed to watch config directory:", err)
	}

	// 一秒防抖，避免编辑器连续写入触发多次加载
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(1 * time.Second)
			}
		case <-pending:
			pending = nil
			newCfg, err := config.LoadConfig(dir)
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			reload(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
