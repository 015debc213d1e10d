// Package dataset loads the scanner's file-based inputs: per-ticker
// daily bar history (CSV or JSON), the YAML watchlist, and optional
// external entry-timing analyses.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// Entry 是观察列表里的一只股票。
type Entry struct {
	Ticker string `yaml:"ticker"`
	Sector string `yaml:"sector,omitempty"`
}

// Watchlist 是批量扫描的输入清单。
type Watchlist struct {
	Tickers []Entry `yaml:"tickers"`
}

// LoadWatchlist 读取 YAML 观察列表。条目既可以是字符串也可以是
// {ticker, sector} 对象。
func LoadWatchlist(path string) (*Watchlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	var flexible struct {
		Tickers []yaml.Node `yaml:"tickers"`
	}
	if err := yaml.Unmarshal(raw, &flexible); err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	wl := &Watchlist{}
	for _, node := range flexible.Tickers {
		switch node.Kind {
		case yaml.ScalarNode:
			if s := strings.TrimSpace(node.Value); s != "" {
				wl.Tickers = append(wl.Tickers, Entry{Ticker: s})
			}
		case yaml.MappingNode:
			var e Entry
			if err := node.Decode(&e); err != nil {
				return nil, fmt.Errorf("watchlist: %w", err)
			}
			if e.Ticker != "" {
				wl.Tickers = append(wl.Tickers, e)
			}
		}
	}
	if len(wl.Tickers) == 0 {
		return nil, fmt.Errorf("watchlist %s: no tickers", path)
	}
	return wl, nil
}

// LoadBars 按扩展名解析单只股票的日线历史，并校验升序与 OHLC 约束。
func LoadBars(path string) ([]market.Bar, error) {
	var (
		bars []market.Bar
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		bars, err = loadBarsCSV(path)
	case ".json":
		bars, err = loadBarsJSON(path)
	default:
		return nil, fmt.Errorf("bars %s: unsupported format", path)
	}
	if err != nil {
		return nil, err
	}
	if err := market.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("bars %s: %w", path, err)
	}
	return bars, nil
}

// BarsFile 在目录里找 ticker 的历史文件，CSV 优先。
func BarsFile(dir, ticker string) (string, error) {
	for _, ext := range []string{".csv", ".json"} {
		p := filepath.Join(dir, ticker+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no bar history for %s in %s", ticker, dir)
}

// LoadTiming 读取可选的外部择时 JSON。文件不存在不算错误。
func LoadTiming(dir, ticker string) (*market.EntryTiming, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, ticker+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("timing %s: %w", path, err)
	}
	timing, err := market.ParseEntryTiming(raw)
	if err != nil {
		return nil, fmt.Errorf("timing %s: %w", path, err)
	}
	return timing, nil
}

func loadBarsCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bars %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("bars %s: no data rows", path)
	}

	cols, err := columnIndex(records[0])
	if err != nil {
		return nil, fmt.Errorf("bars %s: %w", path, err)
	}
	bars := make([]market.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		b, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("bars %s row %d: %w", path, i+2, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

type columns struct {
	date, open, high, low, close, volume int
}

func columnIndex(header []string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "day":
			c.date = i
		case "open", "o":
			c.open = i
		case "high", "h":
			c.high = i
		case "low", "l":
			c.low = i
		case "close", "c", "adjclose", "adj_close":
			c.close = i
		case "volume", "v", "vol":
			c.volume = i
		}
	}
	if c.date < 0 || c.open < 0 || c.high < 0 || c.low < 0 || c.close < 0 || c.volume < 0 {
		return c, fmt.Errorf("header missing one of date/open/high/low/close/volume")
	}
	return c, nil
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

func parseRow(rec []string, c columns) (market.Bar, error) {
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var (
		b   market.Bar
		err error
	)
	raw := get(c.date)
	for _, layout := range dateLayouts {
		if b.Date, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return b, fmt.Errorf("bad date %q", raw)
	}
	fields := []struct {
		dst  *float64
		idx  int
		name string
	}{
		{&b.Open, c.open, "open"},
		{&b.High, c.high, "high"},
		{&b.Low, c.low, "low"},
		{&b.Close, c.close, "close"},
		{&b.Volume, c.volume, "volume"},
	}
	for _, f := range fields {
		v, perr := strconv.ParseFloat(get(f.idx), 64)
		if perr != nil {
			return b, fmt.Errorf("bad %s %q", f.name, get(f.idx))
		}
		*f.dst = v
	}
	return b, nil
}

type jsonBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func loadBarsJSON(path string) ([]market.Bar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	var rows []jsonBar
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("bars %s: %w", path, err)
	}
	bars := make([]market.Bar, 0, len(rows))
	for i, row := range rows {
		var b market.Bar
		var perr error
		for _, layout := range dateLayouts {
			if b.Date, perr = time.Parse(layout, row.Date); perr == nil {
				break
			}
		}
		if perr != nil {
			return nil, fmt.Errorf("bars %s row %d: bad date %q", path, i, row.Date)
		}
		b.Open, b.High, b.Low, b.Close, b.Volume = row.Open, row.High, row.Low, row.Close, row.Volume
		bars = append(bars, b)
	}
	return bars, nil
}
