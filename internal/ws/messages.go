package ws

import (
	"encoding/json"

	"netsim/internal/dispatch"
	"netsim/internal/timeseries"
)

// Envelope wraps every WebSocket message with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> server messages

type RunStartPayload struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Server -> client messages

type StepCompletePayload struct {
	StepIndex       int  `json:"step_index"`
	Converged       bool `json:"converged"`
	Failed          bool `json:"failed"`
	OuterIterations int  `json:"outer_iterations"`
}

type RunStartedPayload struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type RunFinishedPayload struct {
	TotalSteps  int `json:"total_steps"`
	FailedSteps int `json:"failed_steps"`
}

type DispatchHourPayload struct {
	Hour            int     `json:"hour"`
	TotalProducedKW float64 `json:"total_produced_kw"`
	UnmetKW         float64 `json:"unmet_kw"`
}

type DispatchSummaryPayload struct {
	AnnualTotalHeatMWh   float64          `json:"annual_total_heat_mwh"`
	UnmetDemandMWh       float64          `json:"unmet_demand_mwh"`
	WeightedWGKEURPerMWh float64          `json:"weighted_wgk_eur_per_mwh"`
	WeightedCO2          float64          `json:"weighted_co2"`
	Shares               []TechSharePayload `json:"shares"`
}

type TechSharePayload struct {
	Name         string  `json:"name"`
	SharePercent float64 `json:"share_percent"`
	AnnualHeatMWh float64 `json:"annual_heat_mwh"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Message type constants.
const (
	// client -> server
	TypeRunStart = "run:start"

	// server -> client
	TypeRunStarted      = "run:started"
	TypeStepComplete    = "run:step_complete"
	TypeRunFinished     = "run:finished"
	TypeDispatchHour    = "dispatch:hour_complete"
	TypeDispatchSummary = "dispatch:summary"
	TypeError           = "error"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func stepCompletePayload(s timeseries.StepStats) StepCompletePayload {
	return StepCompletePayload{
		StepIndex:       s.StepIndex,
		Converged:       s.Converged,
		Failed:          s.Failed,
		OuterIterations: s.OuterIterations,
	}
}

func dispatchSummaryPayload(r dispatch.EnergySystemResults) DispatchSummaryPayload {
	shares := make([]TechSharePayload, len(r.Shares))
	for i, s := range r.Shares {
		shares[i] = TechSharePayload{
			Name:          s.Name,
			SharePercent:  s.SharePercent,
			AnnualHeatMWh: s.Result.AnnualHeatMWh,
		}
	}
	return DispatchSummaryPayload{
		AnnualTotalHeatMWh:   r.AnnualTotalHeatMWh,
		UnmetDemandMWh:       r.UnmetDemandMWh,
		WeightedWGKEURPerMWh: r.WeightedWGKEURPerMWh,
		WeightedCO2:          r.WeightedCO2,
		Shares:               shares,
	}
}
