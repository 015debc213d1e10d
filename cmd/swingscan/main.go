package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/app"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/logger"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/scan"
)

func main() {
	cfgPath := os.Getenv("SWINGSCAN_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "配置文件路径")
	flag.Usage = usage
	flag.Parse()

	mode := "scan"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，观察列表=%s）", cfg.App.Env, cfg.Data.WatchlistPath)

	application, err := app.NewApp(cfgPath)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "scan":
		summary, err := application.RunScan(ctx)
		if err != nil {
			log.Fatalf("扫描失败: %v", err)
		}
		scan.PrintTable(summary)
	case "serve":
		if err := application.Serve(ctx); err != nil {
			log.Fatalf("服务运行失败: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "用法: swingscan [-config 路径] [scan|serve]\n")
	fmt.Fprintf(os.Stderr, "  scan   对观察列表执行一轮扫描并打印结果（默认）\n")
	fmt.Fprintf(os.Stderr, "  serve  启动 HTTP 评估与历史查询服务\n")
	flag.PrintDefaults()
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
