package observ

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Log("backtest_started", map[string]any{"strategy": "ma_cross"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "backtest_started", entry["event"])
	assert.Equal(t, "ma_cross", entry["strategy"])
	assert.NotEmpty(t, entry["ts"])
}

func TestCountersAndGauges(t *testing.T) {
	Reset()

	IncCounter("engine_runs_total", nil)
	IncCounter("engine_runs_total", nil)
	IncCounter("engine_runs_total", map[string]string{"engine": "sim"})
	SetGauge("backtest_total_return", 0.12, nil)

	assert.Equal(t, int64(2), CounterValue("engine_runs_total", nil))
	assert.Equal(t, int64(1), CounterValue("engine_runs_total", map[string]string{"engine": "sim"}))

	snap := Snapshot()
	assert.Equal(t, 2.0, snap["engine_runs_total"])
	assert.Equal(t, 1.0, snap["engine_runs_total{engine=sim}"])
	assert.Equal(t, 0.12, snap["backtest_total_return"])
}
