package ws

import (
	"log"

	"netsim/internal/dispatch"
	"netsim/internal/timeseries"
)

// Bridge implements timeseries.Observer and broadcasts each completed
// hour's step stats to every connected WebSocket client.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// OnStepComplete satisfies timeseries.Observer.
func (b *Bridge) OnStepComplete(s timeseries.StepStats) {
	msg, err := NewEnvelope(TypeStepComplete, stepCompletePayload(s))
	if err != nil {
		log.Printf("ws: marshaling step stats: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

// BroadcastRunStarted announces the hour range a run is about to drive.
func (b *Bridge) BroadcastRunStarted(startHour, endHour int) {
	msg, err := NewEnvelope(TypeRunStarted, RunStartedPayload{StartHour: startHour, EndHour: endHour})
	if err != nil {
		log.Printf("ws: marshaling run started: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

// BroadcastRunFinished announces that the run loop has returned.
func (b *Bridge) BroadcastRunFinished(totalSteps, failedSteps int) {
	msg, err := NewEnvelope(TypeRunFinished, RunFinishedPayload{TotalSteps: totalSteps, FailedSteps: failedSteps})
	if err != nil {
		log.Printf("ws: marshaling run finished: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

// BroadcastDispatchHour pushes one hour's dispatch outcome, for callers
// driving EnergySystem.CalculateMix hour-by-hour rather than in one pass.
func (b *Bridge) BroadcastDispatchHour(hour int, totalProducedKW, unmetKW float64) {
	msg, err := NewEnvelope(TypeDispatchHour, DispatchHourPayload{
		Hour: hour, TotalProducedKW: totalProducedKW, UnmetKW: unmetKW,
	})
	if err != nil {
		log.Printf("ws: marshaling dispatch hour: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

// BroadcastDispatchSummary pushes the aggregated annual dispatch result
// once EnergySystem.AggregateResults has run.
func (b *Bridge) BroadcastDispatchSummary(r dispatch.EnergySystemResults) {
	msg, err := NewEnvelope(TypeDispatchSummary, dispatchSummaryPayload(r))
	if err != nil {
		log.Printf("ws: marshaling dispatch summary: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
