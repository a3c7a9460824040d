package timeseries

import (
	"log"

	"netsim/internal/catalog"
	"netsim/internal/hydraulics"
	"netsim/internal/network"
	"netsim/internal/simerrors"
)

// StepStats is passed to an Observer after each hour completes.
type StepStats struct {
	StepIndex       int
	Converged       bool
	Failed          bool
	OuterIterations int
}

// Observer receives progress notifications as the driver advances through
// the selected hour range. Grounded in the teacher's simulator.Callback
// push-interface idiom; optional, per design (spec §9's
// on_step_complete(step_index, stats)).
type Observer interface {
	OnStepComplete(stats StepStats)
}

// SecondaryProducerProfile drives one secondary (mass-flow-controlled)
// producer's hourly mass flow.
type SecondaryProducerProfile struct {
	PumpIdx        int
	MassFlowKgPerS hydraulics.ProfileSource
}

// Driver runs the annual (or sliced) time-series simulation.
type Driver struct {
	Solver *hydraulics.Solver
}

// NewDriver returns a driver with the default solver.
func NewDriver() *Driver { return &Driver{Solver: hydraulics.NewSolver()} }

// Run advances the network over [tStart, tEnd), driving every attached
// controller (including ConstantProfile controllers wired to per-hour
// data sources by the caller) and logging per-element results. A step
// whose solve fails is captured: its row is filled with the previous
// step's values (or left zero at t=0) and the run continues.
func (d *Driver) Run(net *network.Network, controllers []hydraulics.Controller, tStart, tEnd int, observer Observer) *Results {
	res := NewResults()

	for t := tStart; t < tEnd; t++ {
		step := hydraulics.RunStep(d.Solver, net, controllers, t, hydraulics.MaxOuterIter)
		if step.Failed {
			log.Printf("timeseries: step %d failed: %v", t, step.FailureErr)
			res.MarkFailed(t)
			d.logPreviousOrZero(res, net, t, tStart)
		} else {
			d.logStep(res, net, t)
		}
		if observer != nil {
			observer.OnStepComplete(StepStats{
				StepIndex: t, Converged: step.Converged, Failed: step.Failed,
				OuterIterations: step.OuterIterations,
			})
		}
	}
	return res
}

func (d *Driver) logStep(res *Results, net *network.Network, t int) {
	var totalDemandKW float64
	for _, c := range net.Consumers {
		totalDemandKW += c.QextW / 1000
	}
	res.Append(ProducerMain, -1, "building_demand_kW", totalDemandKW)

	for i, pp := range net.PumpsP {
		qextKW := pp.ResMDotFromKgPerS * catalog.WaterCpKJPerKgK * (pp.ResTToK - pp.ResTFromK)
		res.Append(ProducerMain, i, "mass_flow", pp.ResMDotFromKgPerS)
		res.Append(ProducerMain, i, "flow_pressure", pp.ResPToBar)
		res.Append(ProducerMain, i, "return_pressure", pp.ResPFromBar)
		res.Append(ProducerMain, i, "deltap", pp.ResPToBar-pp.ResPFromBar)
		res.Append(ProducerMain, i, "return_temp", pp.ResTFromK-273.15)
		res.Append(ProducerMain, i, "flow_temp", pp.ResTToK-273.15)
		res.Append(ProducerMain, i, "qext_kW", qextKW)
	}
	for i, mp := range net.PumpsM {
		qextKW := mp.MDotKgPerS * catalog.WaterCpKJPerKgK * (mp.ResTToK - mp.ResTFromK)
		res.Append(ProducerSecondary, i, "mass_flow", mp.MDotKgPerS)
		res.Append(ProducerSecondary, i, "flow_pressure", mp.ResPToBar)
		res.Append(ProducerSecondary, i, "return_pressure", mp.ResPFromBar)
		res.Append(ProducerSecondary, i, "deltap", mp.ResPToBar-mp.ResPFromBar)
		res.Append(ProducerSecondary, i, "return_temp", mp.ResTFromK-273.15)
		res.Append(ProducerSecondary, i, "flow_temp", mp.ResTToK-273.15)
		res.Append(ProducerSecondary, i, "qext_kW", qextKW)
	}
}

// logPreviousOrZero repeats the previous step's logged values for a failed
// step, or logs zero at t == tStart (the "NaN at step 0" case collapses to
// zero here since every logged series is a plain float64 array).
func (d *Driver) logPreviousOrZero(res *Results, net *network.Network, t, tStart int) {
	if len(res.series) == 0 {
		res.Append(ProducerMain, -1, "building_demand_kW", 0)
		params := []string{"mass_flow", "flow_pressure", "return_pressure", "deltap", "return_temp", "flow_temp", "qext_kW"}
		for i := range net.PumpsP {
			for _, p := range params {
				res.Append(ProducerMain, i, p, 0)
			}
		}
		for i := range net.PumpsM {
			for _, p := range params {
				res.Append(ProducerSecondary, i, p, 0)
			}
		}
		return
	}
	for k, series := range res.series {
		var v float64
		if len(series) > 0 {
			v = series[len(series)-1]
		}
		res.series[k] = append(series, v)
		_ = k
	}
}

// ConsumerDemandProfile drives one consumer's hourly heat demand in the
// simplified (design-scaled) mode; unlike Run, no controller loop is
// involved, so only the raw qext[t] source is needed.
type ConsumerDemandProfile struct {
	ConsumerIdx int
	QextWSource hydraulics.ProfileSource
}

type designPoint struct {
	massFlowKgPerS    float64
	flowPressureBar   float64
	returnPressureBar float64
	deltaPBar         float64
	returnTempC       float64
	flowTempC         float64
	qextKW            float64
}

func loadDesignPoint(designResults *Results, pt ProducerType, idx int) (designPoint, bool) {
	qextKW, ok := firstValue(designResults, pt, idx, "qext_kW")
	if !ok {
		return designPoint{}, false
	}
	massFlow, _ := firstValue(designResults, pt, idx, "mass_flow")
	flowP, _ := firstValue(designResults, pt, idx, "flow_pressure")
	returnP, _ := firstValue(designResults, pt, idx, "return_pressure")
	deltaP, _ := firstValue(designResults, pt, idx, "deltap")
	returnT, _ := firstValue(designResults, pt, idx, "return_temp")
	flowT, _ := firstValue(designResults, pt, idx, "flow_temp")
	return designPoint{
		massFlowKgPerS: massFlow, flowPressureBar: flowP, returnPressureBar: returnP,
		deltaPBar: deltaP, returnTempC: returnT, flowTempC: flowT, qextKW: qextKW,
	}, true
}

func firstValue(r *Results, pt ProducerType, idx int, parameter string) (float64, bool) {
	s := r.Series(pt, idx, parameter)
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// RunSimplified implements the "simplified mode" fast scenario-sweep driver:
// rather than re-solving the hydraulic network every hour, it assumes the
// already-computed design-point solution (designResults, typically a
// single-hour Run at the network's peak load) scales linearly with
// building demand. Each producer's heat share is taken from its
// design-point share of total generation; mass flow is then derived from
// q / (cp * (t_flow - t_return_design)); flow/return temperatures and
// pressures are held constant at their design values. Design losses
// (generation minus building demand at the design point) are held
// constant in absolute kW and apportioned across producers by their
// design-point generation share, not scaled with demand. Grounded in
// simplified_time_series_net.
func (d *Driver) RunSimplified(_ *network.Network, profiles []ConsumerDemandProfile, designResults *Results, tStart, tEnd int) (*Results, error) {
	totalDemandDesignKW, ok := firstValue(designResults, ProducerMain, -1, "building_demand_kW")
	if !ok {
		return nil, simerrors.New(simerrors.InvalidInput, "design-point results carry no building_demand_kW row")
	}

	type producer struct {
		pt    ProducerType
		idx   int
		point designPoint
	}
	var producers []producer
	var totalGenerationDesignKW float64
	for _, idx := range designResults.ProducerIndices(ProducerMain) {
		if dp, ok := loadDesignPoint(designResults, ProducerMain, idx); ok {
			producers = append(producers, producer{ProducerMain, idx, dp})
			totalGenerationDesignKW += dp.qextKW
		}
	}
	for _, idx := range designResults.ProducerIndices(ProducerSecondary) {
		if dp, ok := loadDesignPoint(designResults, ProducerSecondary, idx); ok {
			producers = append(producers, producer{ProducerSecondary, idx, dp})
			totalGenerationDesignKW += dp.qextKW
		}
	}
	if len(producers) == 0 {
		return nil, simerrors.New(simerrors.InvalidInput, "design-point results carry no producer qext_kW rows")
	}

	designLossesKW := totalGenerationDesignKW - totalDemandDesignKW

	res := NewResults()
	for t := tStart; t < tEnd; t++ {
		var totalDemandKW float64
		for _, p := range profiles {
			if v, ok := p.QextWSource.ValueAt(t); ok {
				totalDemandKW += v / 1000
			}
		}
		res.Append(ProducerMain, -1, "building_demand_kW", totalDemandKW)

		for _, p := range producers {
			share := 1.0
			if totalGenerationDesignKW > 0 {
				share = p.point.qextKW / totalGenerationDesignKW
			}
			producerLossesKW := designLossesKW * share
			qextKW := totalDemandKW*share + producerLossesKW

			deltaT := p.point.flowTempC - p.point.returnTempC
			massFlowKgPerS := 0.0
			if deltaT != 0 {
				massFlowKgPerS = qextKW / (catalog.WaterCpKJPerKgK * deltaT)
			}

			res.Append(p.pt, p.idx, "mass_flow", massFlowKgPerS)
			res.Append(p.pt, p.idx, "flow_pressure", p.point.flowPressureBar)
			res.Append(p.pt, p.idx, "return_pressure", p.point.returnPressureBar)
			res.Append(p.pt, p.idx, "deltap", p.point.deltaPBar)
			res.Append(p.pt, p.idx, "return_temp", p.point.returnTempC)
			res.Append(p.pt, p.idx, "flow_temp", p.point.flowTempC)
			res.Append(p.pt, p.idx, "qext_kW", qextKW)
		}
	}
	return res, nil
}
