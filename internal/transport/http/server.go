package scanhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/engine"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/logger"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/store/scanlog"

	"github.com/gin-gonic/gin"
)

// Server 提供最小化的扫描 HTTP 服务：在线评估 + 决策历史查询。
type Server struct {
	addr   string
	router *gin.Engine
}

// ConfigProvider 返回当前生效的配置快照（热更新安全）。
type ConfigProvider func() *config.Config

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr   string
	Config ConfigProvider
	Logs   *scanlog.Store
}

// NewServer 构建扫描 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("scan http server requires a config provider")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/scan")
	api.POST("/evaluate", evaluateHandler(cfg.Config))
	api.GET("/decisions", decisionsHandler(cfg.Logs))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// evaluateRequest 是在线评估的请求体。snapshot 与 timing 均可省略：
// snapshot 缺失时从日线自行推导，timing 缺失时按无外部评分处理。
type evaluateRequest struct {
	Ticker   string           `json:"ticker"`
	Bars     []market.Bar     `json:"bars"`
	Snapshot *market.Snapshot `json:"snapshot,omitempty"`
	Timing   json.RawMessage  `json:"timing,omitempty"`
}

type evaluateResponse struct {
	Ticker   string          `json:"ticker"`
	Decision engine.Decision `json:"decision"`
}

func evaluateHandler(provider ConfigProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req evaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.Ticker == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
			return
		}
		if err := market.ValidateBars(req.Bars); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		snap := req.Snapshot
		if snap == nil {
			built := market.BuildSnapshot(req.Ticker, req.Bars)
			snap = &built
		}

		var timing *market.EntryTiming
		if len(req.Timing) > 0 {
			parsed, err := market.ParseEntryTiming(req.Timing)
			if err != nil {
				// 外部评分损坏时降级评估，而不是拒绝整个请求。
				logger.Warnf("evaluate %s: 外部评分解析失败，忽略: %v", req.Ticker, err)
			} else {
				timing = parsed
			}
		}

		cfg := provider()
		decision := engine.Evaluate(req.Bars, snap, timing, &cfg.Engine)
		c.JSON(http.StatusOK, evaluateResponse{Ticker: req.Ticker, Decision: decision})
	}
}

func decisionsHandler(logs *scanlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logs == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision log store is disabled"})
			return
		}
		opts := scanlog.QueryOptions{
			Ticker: c.Query("ticker"),
			ScanID: c.Query("scanId"),
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			opts.Limit = n
		}
		if raw := c.Query("buyOnly"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "buyOnly must be a boolean"})
				return
			}
			opts.BuyOnly = v
		}
		records, err := logs.Recent(c.Request.Context(), opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": records, "count": len(records)})
	}
}

// requestLogger 记录接口调用，便于追踪在线评估与历史查询。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
