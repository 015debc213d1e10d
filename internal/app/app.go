package app

import (
	"context"
	"fmt"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/logger"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/scan"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/store/scanlog"
	scanhttp "github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→执行扫描或常驻服务。
type App struct {
	watcher *config.Watcher
	store   *scanlog.Store
	httpSrv *scanhttp.Server
}

// NewApp 根据配置文件构建应用对象（不启动）。
func NewApp(configPath string) (*App, error) {
	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	cfg := watcher.Snapshot()
	logger.SetLevel(cfg.App.LogLevel)
	watcher.Subscribe(func(next *config.Config) {
		logger.SetLevel(next.App.LogLevel)
	})

	a := &App{watcher: watcher}

	if cfg.Store.Enabled {
		store, err := scanlog.Open(cfg.Store.Path)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("open scan log store: %w", err)
		}
		a.store = store
	}

	if cfg.App.HTTPAddr != "" {
		srv, err := scanhttp.NewServer(scanhttp.ServerConfig{
			Addr:   cfg.App.HTTPAddr,
			Config: watcher.Snapshot,
			Logs:   a.store,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("build http server: %w", err)
		}
		a.httpSrv = srv
	}

	return a, nil
}

// Config 返回当前配置快照。
func (a *App) Config() *config.Config {
	if a == nil || a.watcher == nil {
		return nil
	}
	return a.watcher.Snapshot()
}

// RunScan 对观察列表执行一轮全量扫描并返回汇总。
func (a *App) RunScan(ctx context.Context) (*scan.Summary, error) {
	if a == nil || a.watcher == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	runner := &scan.Runner{Config: a.watcher.Snapshot(), Store: a.store}
	return runner.Run(ctx)
}

// Serve 启动 HTTP 服务，直到 ctx 取消或服务出错。
func (a *App) Serve(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.httpSrv == nil {
		return fmt.Errorf("http server disabled: app.http_addr is empty")
	}
	logger.Infof("HTTP 服务监听 %s", a.httpSrv.Addr())
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Close 释放持有的资源。可重复调用。
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.store = nil
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.watcher = nil
	}
	return firstErr
}
