package dispatch

import "math"

// CollectorType selects the EN 12975 efficiency-curve coefficients used by
// SolarThermal, grounded in the flat-plate vs. evacuated-tube distinction
// the solar-radiation model draws on.
type CollectorType int

const (
	FlatPlate CollectorType = iota
	EvacuatedTube
)

func collectorCoefficients(t CollectorType) (eta0, a1, a2, iamB0 float64) {
	switch t {
	case EvacuatedTube:
		return 0.72, 1.2, 0.008, 0.05
	default: // FlatPlate
		return 0.80, 3.5, 0.015, 0.10
	}
}

// SolarThermal converts on-plane irradiance to useful heat via an EN
// 12975-style collector efficiency curve, corrected by an ASHRAE-style
// incidence angle modifier IAM(theta) = 1 - b0*(1/cos(theta) - 1).
// SolarThermal always reports its full useful heat as Q_heat_produced_kW,
// counts only the part up to the remaining demand as Q_out_kW, and lets the
// caller route the surplus into the storage's net inflow. In
// EnergySystem.CalculateMix the technology's Strategy also gates it, and the
// built-in strategies switch it off once remaining demand is zero, so no
// surplus arises in an hour whose demand is already met.
type SolarThermal struct {
	TechName      string
	PriorityValue int
	GrossAreaM2   float64
	Type          CollectorType
	AmbientTempC  float64 // fallback ambient when Context doesn't override it

	hourlyHeatKW []float64
}

func NewSolarThermal(name string, priority int, grossAreaM2 float64, t CollectorType) *SolarThermal {
	return &SolarThermal{TechName: name, PriorityValue: priority, GrossAreaM2: grossAreaM2, Type: t, AmbientTempC: 10}
}

func (s *SolarThermal) Name() string  { return s.TechName }
func (s *SolarThermal) Priority() int { return s.PriorityValue }

func (s *SolarThermal) InitOperation(hours int) {
	s.hourlyHeatKW = make([]float64, hours)
}

// Decide: solar thermal runs whenever there is irradiance; remaining demand
// is not checked here (the dispatcher's Strategy may still switch it off).
func (s *SolarThermal) Decide(ctx Context, _ float64) bool { return ctx.SolarIrradWPerM2 > 0 }

func (s *SolarThermal) iam(incidenceDeg float64) float64 {
	_, _, _, b0 := collectorCoefficients(s.Type)
	cosTheta := math.Cos(incidenceDeg * math.Pi / 180)
	if cosTheta <= 0.01 {
		return 0
	}
	return 1 - b0*(1/cosTheta-1)
}

func (s *SolarThermal) Generate(t int, remainingKW float64, ctx Context) (float64, float64) {
	g := ctx.SolarIrradWPerM2
	if g <= 0 {
		return 0, 0
	}
	eta0, a1, a2, _ := collectorCoefficients(s.Type)
	kIam := s.iam(ctx.IncidenceAngleDeg)

	meanFluidC := (ctx.SupplyTempC + ctx.ReturnTempC) / 2
	ambientC := ctx.OutdoorTempC
	if ambientC == 0 {
		ambientC = s.AmbientTempC
	}
	dT := meanFluidC - ambientC

	eta := eta0*kIam - a1*dT/g - a2*dT*dT/g
	if eta < 0 {
		eta = 0
	}
	qW := eta * g * s.GrossAreaM2
	qKW := qW / 1000

	if t >= 0 && t < len(s.hourlyHeatKW) {
		s.hourlyHeatKW[t] = qKW
	}
	// only the portion up to remainingKW counts toward demand; the
	// dispatcher routes the rest (qKW - qOut) into storage net inflow
	// rather than discarding it.
	qOut := qKW
	if remainingKW < qOut {
		qOut = remainingKW
	}
	if qOut < 0 {
		qOut = 0
	}
	return qOut, qKW
}

func (s *SolarThermal) Calculate(econ EconomicParams, durationH float64) TechResult {
	var heatMWh float64
	for _, v := range s.hourlyHeatKW {
		heatMWh += v * durationH / 1000
	}
	ann := CalculateWGK(econ, 0, heatMWh)
	co2, pe := SpecificEmissionsAndPE(econ, 0, 0, heatMWh)
	return TechResult{
		AnnualHeatMWh: heatMWh, AnnualCostAnnuityEUR: ann.ATotalEUR, WGKEURPerMWh: ann.WGKEURPerMWh,
		SpecificCO2: co2, SpecificPrimaryEnergy: pe, HourlyPowerKW: s.hourlyHeatKW,
	}
}

func (s *SolarThermal) OptimizationParameters() []OptimizationParam {
	return []OptimizationParam{{Name: s.TechName + ".gross_area_m2", InitialValue: s.GrossAreaM2, Min: 0, Max: s.GrossAreaM2 * 3}}
}

func (s *SolarThermal) SetParameters(values map[string]float64) {
	if v, ok := values[s.TechName+".gross_area_m2"]; ok {
		s.GrossAreaM2 = v
	}
}
