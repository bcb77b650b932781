package usecase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Voltage float64 `json:"battery_voltage"`
}

func TestMQPayloadInjectsIntoObject(t *testing.T) {
	ts := time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)
	p := MQPayload{
		Type:      "VEDIRECT_TEXT",
		Serial:    "HQ2232GW43E",
		Source:    "10.0.0.7:4001",
		Timestamp: ts,
		Data:      sample{Voltage: 13.23},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "VEDIRECT_TEXT", out["type"])
	assert.Equal(t, "HQ2232GW43E", out["serial"])
	assert.Equal(t, "10.0.0.7:4001", out["source"])
	assert.Equal(t, "2026-10-14T08:30:00Z", out["timestamp"])

	data := out["data"].(map[string]interface{})
	assert.Equal(t, 13.23, data["battery_voltage"])
	assert.Equal(t, "VEDIRECT_TEXT", data["msgType"])
	assert.Equal(t, "HQ2232GW43E", data["serial"])
}

func TestMQPayloadPrimitiveData(t *testing.T) {
	raw, err := json.Marshal(MQPayload{Type: "RAW", Serial: "x", Data: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"RAW","serial":"x","timestamp":"0001-01-01T00:00:00Z","data":42}`, string(raw))
}
