// Package scan runs the batch "buy now" evaluation over a watchlist:
// load bars and optional timing per ticker, evaluate, persist, report.
package scan

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/dataset"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/engine"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/logger"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/report"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/store/scanlog"
)

// TickerResult 是单只股票的扫描产出。
type TickerResult struct {
	Ticker   string          `json:"ticker"`
	Decision engine.Decision `json:"decision"`
	Err      string          `json:"error,omitempty"`
}

// Summary 是一轮扫描的汇总。
type Summary struct {
	ScanID   string         `json:"scanId"`
	Started  time.Time      `json:"started"`
	Elapsed  time.Duration  `json:"elapsed"`
	Results  []TickerResult `json:"results"`
	BuyCount int            `json:"buyCount"`
	ErrCount int            `json:"errCount"`
}

// Runner 把数据目录、引擎配置、决策库和报告输出拼在一起。
type Runner struct {
	Config *config.Config
	Store  *scanlog.Store // 可为 nil
}

// Run 对整个观察列表做一轮并发扫描。单只股票的失败只记录，
// 不会中断整轮扫描。
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	wl, err := dataset.LoadWatchlist(r.Config.Data.WatchlistPath)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	summary := &Summary{
		ScanID:  uuid.NewString(),
		Started: started,
		Results: make([]TickerResult, len(wl.Tickers)),
	}
	logger.Infof("扫描开始 scan_id=%s tickers=%d", summary.ScanID, len(wl.Tickers))

	bar := progressbar.NewOptions(len(wl.Tickers),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning"),
	)

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Config.Data.Concurrency)
	for i, entry := range wl.Tickers {
		group.Go(func() error {
			res := r.scanOne(gctx, summary.ScanID, entry)
			mu.Lock()
			summary.Results[i] = res
			mu.Unlock()
			bar.Add(1)
			return nil // 单标的失败不往上抛
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()
	fmt.Println()

	for _, res := range summary.Results {
		if res.Err != "" {
			summary.ErrCount++
		} else if res.Decision.IsBuyNow {
			summary.BuyCount++
		}
	}
	summary.Elapsed = time.Since(started)
	logger.Infof("扫描完成 scan_id=%s buys=%d errors=%d elapsed=%s",
		summary.ScanID, summary.BuyCount, summary.ErrCount, summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

func (r *Runner) scanOne(ctx context.Context, scanID string, entry dataset.Entry) TickerResult {
	res := TickerResult{Ticker: entry.Ticker}

	path, err := dataset.BarsFile(r.Config.Data.BarsDir, entry.Ticker)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	bars, err := dataset.LoadBars(path)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	timing, err := dataset.LoadTiming(r.Config.Data.TimingDir, entry.Ticker)
	if err != nil {
		// 择时文件损坏只降级为无外部分析
		logger.Warnf("载入择时失败 ticker=%s err=%v", entry.Ticker, err)
	}

	snap := market.BuildSnapshot(entry.Ticker, bars)
	snap.Sector = entry.Sector
	res.Decision = engine.Evaluate(bars, &snap, timing, &r.Config.Engine)

	if r.Store != nil {
		if err := r.Store.Append(ctx, scanID, entry.Ticker, res.Decision); err != nil {
			logger.Errorf("决策落盘失败 ticker=%s err=%v", entry.Ticker, err)
		}
	}
	if r.Config.Report.Enabled && res.Decision.IsBuyNow {
		if _, err := report.Write(r.Config.Report.Dir, entry.Ticker, bars, res.Decision); err != nil {
			logger.Warnf("报告生成失败 ticker=%s err=%v", entry.Ticker, err)
		}
	}
	return res
}

// PrintTable 把扫描结果按分数倒序打印成终端表格。
func PrintTable(s *Summary) {
	results := make([]TickerResult, len(s.Results))
	copy(results, s.Results)
	sort.SliceStable(results, func(i, j int) bool {
		return score(results[i]) > score(results[j])
	})

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Ticker", "Buy", "Score", "Tier", "RR", "Reason"}),
	)
	for _, res := range results {
		if res.Err != "" {
			table.Append([]string{res.Ticker, "-", "-", "-", "-", truncate("error: "+res.Err, 60)})
			continue
		}
		d := res.Decision
		buy := "no"
		if d.IsBuyNow {
			buy = "YES"
		}
		scoreCol, tierCol := "-", "-"
		if d.Details != nil {
			scoreCol = fmt.Sprintf("%.2f", d.Details.Score)
			tierCol = fmt.Sprintf("%d", d.Details.Tier)
		}
		rrCol := "-"
		if d.RR != nil {
			rrCol = fmt.Sprintf("%.2f", *d.RR)
		}
		table.Append([]string{res.Ticker, buy, scoreCol, tierCol, rrCol, truncate(d.Reason, 60)})
	}
	table.Render()
	fmt.Printf("\n%d scanned, %d buy signals, %d errors in %s\n",
		len(s.Results), s.BuyCount, s.ErrCount, s.Elapsed.Round(time.Millisecond))
}

func score(r TickerResult) float64 {
	if r.Err != "" || r.Decision.Details == nil {
		return -1
	}
	return r.Decision.Details.Score
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
