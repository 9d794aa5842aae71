package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WeekendTrader/internal/ledger"
	"WeekendTrader/internal/model"
)

type fakeController struct {
	paused map[model.StrategyID]bool
	trades []*model.Trade
}

func newFake() *fakeController {
	return &fakeController{
		paused: map[model.StrategyID]bool{},
		trades: []*model.Trade{{
			ID: "t1", Symbol: "BTCUSDT", Strategy: model.StrategyRangeRetest, Owner: model.StrategyRangeRetest,
			Side: model.Buy, EntryPrice: 100, InitialSize: decimal.NewFromInt(2), CurrentSize: decimal.NewFromInt(2),
			Status: model.StatusOpen, OpenTime: time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC),
		}},
	}
}

func (f *fakeController) Snapshot() model.Snapshot {
	return model.Snapshot{Account: model.Account{Balance: 10000, Equity: 10000}, Trades: f.trades}
}

func (f *fakeController) Pause(owner model.StrategyID) []ledger.Event {
	f.paused[owner] = true
	var out []ledger.Event
	for _, t := range f.trades {
		if t.Owner == owner && t.IsOpen() {
			t.Status = model.StatusClosed
			t.CloseReason = model.ReasonManualPause
			out = append(out, ledger.Event{Kind: ledger.EventClosed, Trade: t.Clone()})
		}
	}
	return out
}

func (f *fakeController) Resume(owner model.StrategyID) { delete(f.paused, owner) }

func (f *fakeController) PausedOwners() []model.StrategyID {
	var out []model.StrategyID
	for id := range f.paused {
		out = append(out, id)
	}
	return out
}

type fakeSink struct {
	got     []string
	cleared int
}

func (s *fakeSink) Clear() {
	s.got = nil
	s.cleared++
}

func (s *fakeSink) Submit(raw string) (int, error) {
	if !strings.HasPrefix(raw, "{") {
		return 0, errors.New("parse decision")
	}
	s.got = append(s.got, raw)
	return 1, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestState(t *testing.T) {
	s := NewServer(":0", newFake(), nil, nil)
	rr := do(t, s.Routes(), http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got struct {
		Account model.Account  `json:"account"`
		Trades  []*model.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 10000.0, got.Account.Balance)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, model.Buy, got.Trades[0].Side)
	assert.True(t, got.Trades[0].CurrentSize.Equal(decimal.NewFromInt(2)))
	assert.Contains(t, rr.Body.String(), `"type":"BUY"`)
}

func TestPauseResume(t *testing.T) {
	ctrl := newFake()
	h := NewServer(":0", ctrl, nil, nil).Routes()

	rr := do(t, h, http.MethodPost, "/pause/BTC_RANGE_RETEST", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp pauseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Paused)
	require.Len(t, resp.Closed, 1)
	assert.Equal(t, model.ReasonManualPause, resp.Closed[0].CloseReason)
	assert.True(t, ctrl.paused[model.StrategyRangeRetest])

	rr = do(t, h, http.MethodPost, "/resume/BTC_RANGE_RETEST", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, ctrl.paused[model.StrategyRangeRetest])
}

func TestPauseUnknownOwner(t *testing.T) {
	h := NewServer(":0", newFake(), nil, nil).Routes()
	rr := do(t, h, http.MethodPost, "/pause/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer(":0", newFake(), nil, nil).Routes()
	rr := do(t, h, http.MethodGet, "/pause/BTC_RANGE_RETEST", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealth(t *testing.T) {
	h := NewServer(":0", newFake(), nil, nil).Routes()
	rr := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDecisions(t *testing.T) {
	sink := &fakeSink{}
	h := NewServer(":0", newFake(), sink, nil).Routes()

	rr := do(t, h, http.MethodPost, "/decisions", `{"symbol":"BTCUSDT","decision":"CANCEL"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, sink.got, 1)

	rr = do(t, h, http.MethodPost, "/decisions", "nonsense")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Len(t, sink.got, 1)
}

func TestClearDecisions(t *testing.T) {
	sink := &fakeSink{}
	h := NewServer(":0", newFake(), sink, nil).Routes()
	do(t, h, http.MethodPost, "/decisions", `{"symbol":"BTCUSDT","decision":"CANCEL"}`)

	rr := do(t, h, http.MethodDelete, "/decisions", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, sink.cleared)
	assert.Empty(t, sink.got)
}

func TestDecisionsDisabledWithoutSink(t *testing.T) {
	h := NewServer(":0", newFake(), nil, nil).Routes()
	rr := do(t, h, http.MethodPost, "/decisions", "{}")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
