package config

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/logger"
)

// Watcher 持有当前配置快照，文件变化时重新 Load 并原子替换。
// 引擎每次评估都取一份快照，重载不会影响执行中的计算。
type Watcher struct {
	path string

	mu        sync.RWMutex
	current   *Config
	listeners []func(*Config)

	fsw *fsnotify.Watcher
}

// NewWatcher 加载初始配置并开始监听文件所在目录。
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, current: cfg, fsw: fsw}
	// 监听目录而不是单个文件：编辑器保存往往是 rename+create
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// Snapshot 返回当前配置（只读共享，调用方不得修改）。
func (w *Watcher) Snapshot() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe 注册重载监听器。
func (w *Watcher) Subscribe(fn func(*Config)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Close 停止监听。
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	base := filepath.Base(w.path)
	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(evt.Name) != base {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload(evt.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watch error: %v", err)
		}
	}
}

func (w *Watcher) reload(name string) {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Errorf("config reload failed (%s): %v", strings.TrimSpace(name), err)
		return
	}
	w.mu.Lock()
	w.current = cfg
	listeners := append([]func(*Config){}, w.listeners...)
	w.mu.Unlock()
	logger.Infof("config reloaded from %s", w.path)
	for _, fn := range listeners {
		fn(cfg)
	}
}
