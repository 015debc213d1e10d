// Package report renders per-ticker HTML K-line reports for scan results
// so a verdict can be eyeballed against the chart that produced it.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/engine"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

const (
	colorBackground  = "#060c1b"
	colorTextPrimary = "#eceff4"
	colorTextMuted   = "#9ca3af"
	colorBull        = "#34d399"
	colorBear        = "#f87171"
	colorMAFast      = "#3b82f6"
	colorMASlow      = "#fbbf24"

	chartWidthPx  = 1400
	klineHeightPx = 560
	volHeightPx   = 220

	maxChartBars = 180
)

// Write 把单只股票的决策与K线渲染成 HTML，返回输出文件路径。
func Write(dir, ticker string, bars []market.Bar, d engine.Decision) (string, error) {
	if len(bars) == 0 {
		return "", fmt.Errorf("report: no bars for %s", ticker)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	window := market.Tail(bars, maxChartBars)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(buildKline(ticker, window, d), buildVolume(window))

	path := filepath.Join(dir, strings.ToLower(ticker)+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("report: render %s: %w", ticker, err)
	}
	return path, nil
}

func buildKline(ticker string, bars []market.Bar, d engine.Decision) *charts.Kline {
	verdict := "no buy"
	if d.IsBuyNow {
		verdict = "BUY"
	}
	subtitle := d.Reason
	if d.RR != nil {
		subtitle = fmt.Sprintf("%s | rr=%.2f", subtitle, *d.RR)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", klineHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s — %s", strings.ToUpper(ticker), verdict),
			Subtitle:      subtitle,
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
	)
	seriesOpts := []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	}
	if d.Details != nil && d.Details.Playbook != nil && d.Details.Playbook.Ready {
		pb := d.Details.Playbook
		seriesOpts = append(seriesOpts,
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "entry", YAxis: pb.EntryTrigger},
				opts.MarkLineNameYAxisItem{Name: "stop", YAxis: pb.InitialStop},
				opts.MarkLineNameYAxisItem{Name: "target", YAxis: pb.FirstTarget},
			),
		)
	}
	kline.SetSeriesOptions(seriesOpts...)

	xAxis := buildXAxis(bars)
	data := make([]opts.KlineData, 0, len(bars))
	for _, b := range bars {
		data = append(data, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	kline.Overlap(buildMALine(bars, xAxis))
	return kline
}

func buildMALine(bars []market.Bar, xAxis []string) *charts.Line {
	closes := market.Closes(bars)
	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("MA25", maSeries(closes, 25),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorMAFast, Width: 2}))
	line.AddSeries("MA75", maSeries(closes, 75),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorMASlow, Width: 2}))
	return line
}

func maSeries(closes []float64, period int) []opts.LineData {
	data := make([]opts.LineData, len(closes))
	for i := range closes {
		if i+1 < period {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: indicator.Sma(closes[:i+1], period)}
	}
	return data
}

func buildVolume(bars []market.Bar) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Volume",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
	)
	xAxis := buildXAxis(bars)
	vols := market.Volumes(bars)
	data := make([]opts.BarData, 0, len(vols))
	for _, v := range vols {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", data)
	return bar
}

func buildXAxis(bars []market.Bar) []string {
	x := make([]string, len(bars))
	for i, b := range bars {
		x[i] = b.Date.Format("2006-01-02")
	}
	return x
}
