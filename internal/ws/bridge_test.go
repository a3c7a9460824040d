package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/dispatch"
	"netsim/internal/timeseries"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	return NewBridge(hub), client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnStepComplete(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnStepComplete(timeseries.StepStats{
		StepIndex: 17, Converged: true, Failed: false, OuterIterations: 4,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeStepComplete, env.Type)

	var p StepCompletePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 17, p.StepIndex)
	assert.True(t, p.Converged)
	assert.False(t, p.Failed)
	assert.Equal(t, 4, p.OuterIterations)
}

func TestBridge_BroadcastRunStartedAndFinished(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.BroadcastRunStarted(0, 8760)
	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeRunStarted, env.Type)
	var started RunStartedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &started))
	assert.Equal(t, 0, started.StartHour)
	assert.Equal(t, 8760, started.EndHour)

	bridge.BroadcastRunFinished(8760, 2)
	env = receiveEnvelope(t, client)
	assert.Equal(t, TypeRunFinished, env.Type)
	var finished RunFinishedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &finished))
	assert.Equal(t, 8760, finished.TotalSteps)
	assert.Equal(t, 2, finished.FailedSteps)
}

func TestBridge_BroadcastDispatchHour(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.BroadcastDispatchHour(100, 450.0, 0.0)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeDispatchHour, env.Type)
	var p DispatchHourPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 100, p.Hour)
	assert.InDelta(t, 450.0, p.TotalProducedKW, 1e-9)
	assert.InDelta(t, 0.0, p.UnmetKW, 1e-9)
}

func TestBridge_BroadcastDispatchSummary(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.BroadcastDispatchSummary(dispatch.EnergySystemResults{
		AnnualTotalHeatMWh:   2628.0,
		UnmetDemandMWh:       0,
		WeightedWGKEURPerMWh: 85.5,
		WeightedCO2:          0.12,
		Shares: []dispatch.TechShare{
			{Name: "chp-1", SharePercent: 66.7, Result: dispatch.TechResult{AnnualHeatMWh: 1752}},
			{Name: "boiler-1", SharePercent: 33.3, Result: dispatch.TechResult{AnnualHeatMWh: 876}},
		},
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeDispatchSummary, env.Type)
	var p DispatchSummaryPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.InDelta(t, 2628.0, p.AnnualTotalHeatMWh, 1e-9)
	assert.InDelta(t, 85.5, p.WeightedWGKEURPerMWh, 1e-9)
	require.Len(t, p.Shares, 2)
	assert.Equal(t, "chp-1", p.Shares[0].Name)
	assert.InDelta(t, 1752.0, p.Shares[0].AnnualHeatMWh, 1e-9)
}
