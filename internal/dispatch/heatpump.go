package dispatch

import (
	"math"

	"netsim/internal/catalog"
)

// HeatPumpSource tags which heat source the unit draws from; AqvaHeat is
// the sentinel variant whose economics are deliberately not modelled (see
// the WGK = -1 handling in Calculate).
type HeatPumpSource int

const (
	SourceRiver HeatPumpSource = iota
	SourceWaste
	SourceGeothermal
	SourceAqvaHeat
)

const maxHeatPumpLiftK = 75.0
const minHeatPumpSupplyC = 35.0

// HeatPump covers River/Waste/Geothermal/AqvaHeat variants: COP is
// bilinearly interpolated from a (source, supply) table, clipped so the
// lift never exceeds 75 K and supply is never below 35 degC. WasteHeatPump
// nets its own electricity consumption out of Q_out (it recovers heat from
// a process that would otherwise be rejected); the other variants deliver
// Q_out = Q.
type HeatPump struct {
	TechName      string
	PriorityValue int
	Source        HeatPumpSource
	RatedHeatKW   float64
	COP           *catalog.COPTable

	hourlyHeatKW []float64
	hourlyElecKW []float64
}

func NewHeatPump(name string, priority int, source HeatPumpSource, ratedHeatKW float64, cop *catalog.COPTable) *HeatPump {
	return &HeatPump{TechName: name, PriorityValue: priority, Source: source, RatedHeatKW: ratedHeatKW, COP: cop}
}

func (h *HeatPump) Name() string  { return h.TechName }
func (h *HeatPump) Priority() int { return h.PriorityValue }

func (h *HeatPump) InitOperation(hours int) {
	h.hourlyHeatKW = make([]float64, hours)
	h.hourlyElecKW = make([]float64, hours)
}

func (h *HeatPump) Decide(_ Context, remainingKW float64) bool { return remainingKW > 0 }

// copFor clips the supply/source pair to the catalogued operating envelope
// before interpolating: supply never below 35 degC, lift never above 75 K.
func (h *HeatPump) copFor(ctx Context) float64 {
	supplyC := ctx.SupplyTempC
	if supplyC < minHeatPumpSupplyC {
		supplyC = minHeatPumpSupplyC
	}
	sourceC := ctx.SourceTempC
	if supplyC-sourceC > maxHeatPumpLiftK {
		sourceC = supplyC - maxHeatPumpLiftK
	}
	if h.COP == nil {
		return 3.0
	}
	return h.COP.Interpolate(sourceC, supplyC)
}

func (h *HeatPump) Generate(t int, remainingKW float64, ctx Context) (float64, float64) {
	q := math.Min(remainingKW, h.RatedHeatKW)
	if q < 0 {
		q = 0
	}
	cop := math.Max(h.copFor(ctx), 1e-6)
	elecKW := q / cop

	qOut := q
	if h.Source == SourceWaste {
		qOut = q - elecKW
		if qOut < 0 {
			qOut = 0
		}
	}

	if t >= 0 && t < len(h.hourlyHeatKW) {
		h.hourlyHeatKW[t] = q
		h.hourlyElecKW[t] = elecKW
	}
	return qOut, q
}

func (h *HeatPump) Calculate(econ EconomicParams, durationH float64) TechResult {
	var heatMWh, elecMWh float64
	for _, v := range h.hourlyHeatKW {
		heatMWh += v * durationH / 1000
	}
	for _, v := range h.hourlyElecKW {
		elecMWh += v * durationH / 1000
	}

	if h.Source == SourceAqvaHeat {
		// Sentinel: AqvaHeat economics are not modelled, per design.
		return TechResult{
			AnnualHeatMWh: heatMWh, AnnualElectricityMWh: elecMWh,
			WGKEURPerMWh: -1, SpecificCO2: -1, HourlyPowerKW: h.hourlyHeatKW,
		}
	}

	ann := CalculateWGK(econ, elecMWh, heatMWh)
	co2, pe := SpecificEmissionsAndPE(econ, 0, elecMWh, heatMWh)
	return TechResult{
		AnnualHeatMWh: heatMWh, AnnualElectricityMWh: elecMWh,
		AnnualCostAnnuityEUR: ann.ATotalEUR, WGKEURPerMWh: ann.WGKEURPerMWh,
		SpecificCO2: co2, SpecificPrimaryEnergy: pe, HourlyPowerKW: h.hourlyHeatKW,
	}
}

func (h *HeatPump) OptimizationParameters() []OptimizationParam {
	return []OptimizationParam{{Name: h.TechName + ".rated_kw", InitialValue: h.RatedHeatKW, Min: 0, Max: h.RatedHeatKW * 3}}
}

func (h *HeatPump) SetParameters(values map[string]float64) {
	if v, ok := values[h.TechName+".rated_kw"]; ok {
		h.RatedHeatKW = v
	}
}
