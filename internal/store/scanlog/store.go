// Package scanlog persists scan decisions with Gorm + SQLite so past
// verdicts can be reviewed from the HTTP API and the HTML reports.
package scanlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/engine"
)

// Record 是一条落盘的扫描决策。
type Record struct {
	ID        int64   `json:"id"`
	ScanID    string  `json:"scanId"`
	Ticker    string  `json:"ticker"`
	Timestamp int64   `json:"ts"`
	IsBuyNow  bool    `json:"isBuyNow"`
	Reason    string  `json:"reason"`
	RR        float64 `json:"rr"`
	HasRR     bool    `json:"hasRr"`
	Score     float64 `json:"score"`
	MLScore   float64 `json:"mlScore"`
	Tier      int     `json:"tier"`

	Details *engine.Details `json:"details,omitempty"`
}

type decisionModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ScanID    string `gorm:"index;size:64"`
	Ticker    string `gorm:"index;size:32"`
	Timestamp int64  `gorm:"index"`
	IsBuyNow  bool
	Reason    string
	RR        float64
	HasRR     bool
	Score     float64
	MLScore   float64
	Tier      int
	Details   datatypes.JSON
}

func (decisionModel) TableName() string { return "scan_decisions" }

// Store 管理扫描决策日志。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）SQLite 决策库并迁移表结构。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("scanlog: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("scanlog: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("scanlog: %w", err)
	}
	if err := db.AutoMigrate(&decisionModel{}); err != nil {
		return nil, fmt.Errorf("scanlog: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：读多写少，放开一点点并行度即可
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append 落盘一条决策。
func (s *Store) Append(ctx context.Context, scanID, ticker string, d engine.Decision) error {
	if s == nil || s.db == nil {
		return nil
	}
	m := decisionModel{
		ScanID:    scanID,
		Ticker:    ticker,
		Timestamp: time.Now().UnixMilli(),
		IsBuyNow:  d.IsBuyNow,
		Reason:    d.Reason,
	}
	if d.RR != nil {
		m.RR = *d.RR
		m.HasRR = true
	}
	if d.Details != nil {
		m.Score = d.Details.Score
		m.MLScore = d.Details.MLScore
		m.Tier = d.Details.Tier
		raw, err := json.Marshal(d.Details)
		if err != nil {
			return fmt.Errorf("scanlog: marshal details: %w", err)
		}
		m.Details = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// QueryOptions 控制历史查询。
type QueryOptions struct {
	Ticker  string
	ScanID  string
	BuyOnly bool
	Limit   int
}

// Recent 按时间倒序返回决策历史。
func (s *Store) Recent(ctx context.Context, opts QueryOptions) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("scanlog: store not open")
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&decisionModel{}).Order("timestamp DESC").Limit(limit)
	if t := strings.TrimSpace(opts.Ticker); t != "" {
		q = q.Where("ticker = ?", t)
	}
	if id := strings.TrimSpace(opts.ScanID); id != "" {
		q = q.Where("scan_id = ?", id)
	}
	if opts.BuyOnly {
		q = q.Where("is_buy_now = ?", true)
	}
	var models []decisionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("scanlog: query: %w", err)
	}
	records := make([]Record, 0, len(models))
	for _, m := range models {
		r := Record{
			ID:        m.ID,
			ScanID:    m.ScanID,
			Ticker:    m.Ticker,
			Timestamp: m.Timestamp,
			IsBuyNow:  m.IsBuyNow,
			Reason:    m.Reason,
			RR:        m.RR,
			HasRR:     m.HasRR,
			Score:     m.Score,
			MLScore:   m.MLScore,
			Tier:      m.Tier,
		}
		if len(m.Details) > 0 {
			var det engine.Details
			if err := json.Unmarshal(m.Details, &det); err == nil {
				r.Details = &det
			}
		}
		records = append(records, r)
	}
	return records, nil
}
