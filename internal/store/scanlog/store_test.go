package scanlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scanlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func decisionWith(buy bool, score float64, reason string) engine.Decision {
	return engine.Decision{
		IsBuyNow: buy,
		Reason:   reason,
		Details:  &engine.Details{Score: score, Tier: 3, Confidence: 0.8},
	}
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "scan-1", "7203.T", decisionWith(false, 3.2, "score 3.20 below buy threshold 5.00")))
	require.NoError(t, s.Append(ctx, "scan-1", "6758.T", decisionWith(true, 6.1, "buy")))

	records, err := s.Recent(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.Equal(t, "scan-1", r.ScanID)
		require.NotNil(t, r.Details)
	}
}

func TestRecentFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "scan-1", "7203.T", decisionWith(false, 2.0, "no")))
	require.NoError(t, s.Append(ctx, "scan-2", "7203.T", decisionWith(true, 6.0, "buy")))
	require.NoError(t, s.Append(ctx, "scan-2", "9984.T", decisionWith(false, 1.0, "no")))

	byTicker, err := s.Recent(ctx, QueryOptions{Ticker: "7203.T"})
	require.NoError(t, err)
	assert.Len(t, byTicker, 2)

	byScan, err := s.Recent(ctx, QueryOptions{ScanID: "scan-2"})
	require.NoError(t, err)
	assert.Len(t, byScan, 2)

	buys, err := s.Recent(ctx, QueryOptions{BuyOnly: true})
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, "7203.T", buys[0].Ticker)
	assert.True(t, buys[0].IsBuyNow)

	limited, err := s.Recent(ctx, QueryOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecentOnClosedStore(t *testing.T) {
	var s *Store
	_, err := s.Recent(context.Background(), QueryOptions{})
	require.Error(t, err)
}
