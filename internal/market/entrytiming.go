package market

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

// EntryTiming 是外部择时协作方的分析结果。
// 本引擎只消费，不复算：score 采用 1=最好 … 7=最差 的倒置刻度。
type EntryTiming struct {
	Score       int      `json:"score"`
	Confidence  float64  `json:"confidence"`
	StopLoss    float64  `json:"stopLoss"`
	PriceTarget float64  `json:"priceTarget"`
	KeyInsights []string `json:"keyInsights,omitempty"`
	ShortRegime string   `json:"shortRegime,omitempty"`
	LongRegime  string   `json:"longRegime,omitempty"`
	Features    map[string]float64 `json:"features,omitempty"`
}

const entryTimingSchema = `{
	"type": "object",
	"required": ["score", "confidence"],
	"properties": {
		"score":       {"type": "integer", "minimum": 1, "maximum": 7},
		"confidence":  {"type": "number", "minimum": 0, "maximum": 1},
		"stopLoss":    {"type": "number"},
		"priceTarget": {"type": "number"},
		"keyInsights": {"type": "array", "items": {"type": "string"}},
		"regimes":     {"type": "object"},
		"debug":       {"type": "object"}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func timingSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("entry_timing.json", strings.NewReader(entryTimingSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("entry_timing.json")
	})
	return compiledSchema, schemaErr
}

// ParseEntryTiming 解析并校验外部择时 JSON。
// 字段提取走 gjson，缺失的数值按 0 兜底；score/confidence 必填。
func ParseEntryTiming(raw []byte) (*EntryTiming, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("entry timing: empty payload")
	}
	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("entry timing: invalid json")
	}
	schema, err := timingSchema()
	if err != nil {
		return nil, fmt.Errorf("entry timing: compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("entry timing: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("entry timing: schema: %w", err)
	}

	parsed := gjson.Parse(trimmed)
	et := &EntryTiming{
		Score:       int(parsed.Get("score").Int()),
		Confidence:  convert.Clamp(convert.Finite(parsed.Get("confidence").Float(), 0), 0, 1),
		StopLoss:    convert.Finite(parsed.Get("stopLoss").Float(), 0),
		PriceTarget: convert.Finite(parsed.Get("priceTarget").Float(), 0),
		ShortRegime: parsed.Get("regimes.shortTerm").String(),
		LongRegime:  parsed.Get("regimes.longTerm").String(),
	}
	for _, item := range parsed.Get("keyInsights").Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			et.KeyInsights = append(et.KeyInsights, s)
		}
	}
	if features := parsed.Get("debug.features"); features.IsObject() {
		et.Features = make(map[string]float64)
		features.ForEach(func(key, value gjson.Result) bool {
			et.Features[key.String()] = convert.Finite(value.Float(), 0)
			return true
		})
	}
	return et, nil
}

// HasLevels 报告止损和目标价是否都可用于 R:R 计算。
func (e *EntryTiming) HasLevels() bool {
	return e != nil && e.StopLoss > 0 && e.PriceTarget > 0 &&
		convert.IsFinite(e.StopLoss) && convert.IsFinite(e.PriceTarget)
}
