package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WeekendTrader/internal/model"
)

func TestParseDecisions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"empty array", "[]", 0},
		{"object", `{"symbol":"btcusdt","decision":"cancel","confidence":90}`, 1},
		{"array", `[{"symbol":"BTCUSDT","decision":"CONFIRM"},{"symbol":"ETHUSDT","decision":"CANCEL"}]`, 2},
		{"fenced", "```json\n{\"symbol\":\"SOLUSDT\",\"decision\":\"CANCEL\"}\n```", 1},
		{"think and prose", "<think>hmm</think>Sure: {\"symbol\":\"BTCUSDT\",\"decision\":\"CANCEL\"} done", 1},
		{"unknown verdict dropped", `{"symbol":"BTCUSDT","decision":"MAYBE"}`, 0},
		{"missing symbol dropped", `{"decision":"CANCEL"}`, 0},
		{"bad action dropped", `{"symbol":"BTCUSDT","decision":"CANCEL","action":"HOLD"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecisions(tt.in)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseDecisionsNormalizes(t *testing.T) {
	got, err := ParseDecisions(`{"symbol":" btcusdt ","decision":"cancel","action":"sell","confidence":88}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
	assert.Equal(t, VerdictCancel, got[0].Verdict)
	assert.Equal(t, model.Sell, got[0].Action)
}

func TestParseDecisionsGarbage(t *testing.T) {
	_, err := ParseDecisions("the market looks scary")
	assert.Error(t, err)
}

func TestBoardVeto(t *testing.T) {
	now := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	b := NewBoard(time.Hour, 80, func() time.Time { return now }, nil)

	n, err := b.Submit(`{"symbol":"BTCUSDT","strategy":"BTC_RANGE_RETEST","action":"BUY","decision":"CANCEL","confidence":90}`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.True(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Sell))
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyMeanReversion, model.Buy))
	assert.False(t, b.Vetoed("ETHUSDT", model.StrategyRangeRetest, model.Buy))

	now = now.Add(time.Hour)
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))
}

func TestBoardWildcardAndConfirm(t *testing.T) {
	now := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	b := NewBoard(0, 0, func() time.Time { return now }, nil)

	_, err := b.Submit(`{"symbol":"ETHUSDT","decision":"CANCEL","confidence":50}`)
	require.NoError(t, err)
	assert.True(t, b.Vetoed("ETHUSDT", model.StrategyMeanReversion, model.Sell))
	assert.True(t, b.Vetoed("ETHUSDT", model.StrategyRangeRetest, model.Buy))

	_, err = b.Submit(`{"symbol":"ETHUSDT","decision":"CONFIRM"}`)
	require.NoError(t, err)
	assert.False(t, b.Vetoed("ETHUSDT", model.StrategyMeanReversion, model.Sell))
}

func TestBoardIgnoresLowConfidenceAndGarbage(t *testing.T) {
	b := NewBoard(time.Hour, 85, nil, nil)

	_, err := b.Submit(`{"symbol":"BTCUSDT","decision":"CANCEL","confidence":40}`)
	require.NoError(t, err)
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))

	n, err := b.Submit("{not json")
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))
}

func TestBoardClear(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewBoard(time.Hour, 0, func() time.Time { return now }, nil)

	_, err := b.Submit(`{"symbol":"BTCUSDT","decision":"CANCEL"}`)
	require.NoError(t, err)
	require.True(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))

	b.Clear()
	assert.False(t, b.Vetoed("BTCUSDT", model.StrategyRangeRetest, model.Buy))
}
