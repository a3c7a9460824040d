package dispatch

import "math"

// CHP is a heat-led combined-heat-and-power unit (gas or wood fired): it
// produces heat up to its nominal thermal capacity and electricity follows
// from a fixed eta_el/eta_th ratio, grounded in the heat-led CHP dispatch
// rule.
type CHP struct {
	TechName      string
	PriorityValue int
	NominalThKW   float64
	EtaTh         float64
	EtaEl         float64
	FuelIsWood    bool

	hourlyHeatKW []float64
	hourlyElecKW []float64 // negative: generation
	hourlyFuelKW []float64
}

func NewCHP(name string, priority int, nominalThKW, etaTh, etaEl float64) *CHP {
	return &CHP{TechName: name, PriorityValue: priority, NominalThKW: nominalThKW, EtaTh: etaTh, EtaEl: etaEl}
}

func (c *CHP) Name() string  { return c.TechName }
func (c *CHP) Priority() int { return c.PriorityValue }

func (c *CHP) InitOperation(hours int) {
	c.hourlyHeatKW = make([]float64, hours)
	c.hourlyElecKW = make([]float64, hours)
	c.hourlyFuelKW = make([]float64, hours)
}

func (c *CHP) Decide(_ Context, remainingKW float64) bool { return remainingKW > 0 }

func (c *CHP) Generate(t int, remainingKW float64, _ Context) (float64, float64) {
	qOut := math.Min(remainingKW, c.NominalThKW)
	if qOut < 0 {
		qOut = 0
	}
	fuelKW := 0.0
	if c.EtaTh > 0 {
		fuelKW = qOut / c.EtaTh
	}
	elecOutKW := c.EtaEl / math.Max(c.EtaTh, 1e-9) * qOut
	if t >= 0 && t < len(c.hourlyHeatKW) {
		c.hourlyHeatKW[t] = qOut
		c.hourlyElecKW[t] = -elecOutKW // signed: negative is generation
		c.hourlyFuelKW[t] = fuelKW
	}
	return qOut, qOut
}

func (c *CHP) Calculate(econ EconomicParams, durationH float64) TechResult {
	var heatMWh, elecMWh, fuelMWh float64
	for _, h := range c.hourlyHeatKW {
		heatMWh += h * durationH / 1000
	}
	for _, e := range c.hourlyElecKW {
		elecMWh += e * durationH / 1000
	}
	for _, f := range c.hourlyFuelKW {
		fuelMWh += f * durationH / 1000
	}
	ann := CalculateWGK(econ, fuelMWh, heatMWh)
	co2, pe := SpecificEmissionsAndPE(econ, fuelMWh, elecMWh, heatMWh)
	return TechResult{
		AnnualHeatMWh: heatMWh, AnnualElectricityMWh: elecMWh, AnnualFuelMWh: fuelMWh,
		AnnualCostAnnuityEUR: ann.ATotalEUR, WGKEURPerMWh: ann.WGKEURPerMWh,
		SpecificCO2: co2, SpecificPrimaryEnergy: pe, HourlyPowerKW: c.hourlyHeatKW,
	}
}

func (c *CHP) OptimizationParameters() []OptimizationParam {
	return []OptimizationParam{{Name: c.TechName + ".nominal_th_kw", InitialValue: c.NominalThKW, Min: 0, Max: c.NominalThKW * 3}}
}

func (c *CHP) SetParameters(values map[string]float64) {
	if v, ok := values[c.TechName+".nominal_th_kw"]; ok {
		c.NominalThKW = v
	}
}

// PowerToHeat converts electricity directly to heat via a resistive/electrode
// element, grounded in the Power-to-Heat generate() rule: Q_out =
// min(remaining, P_nom), electricity consumed = Q_out / eta.
type PowerToHeat struct {
	TechName      string
	PriorityValue int
	NominalKW     float64
	Eta           float64

	hourlyHeatKW []float64
	hourlyElecKW []float64
}

func NewPowerToHeat(name string, priority int, nominalKW float64) *PowerToHeat {
	return &PowerToHeat{TechName: name, PriorityValue: priority, NominalKW: nominalKW, Eta: 0.99}
}

func (p *PowerToHeat) Name() string  { return p.TechName }
func (p *PowerToHeat) Priority() int { return p.PriorityValue }

func (p *PowerToHeat) InitOperation(hours int) {
	p.hourlyHeatKW = make([]float64, hours)
	p.hourlyElecKW = make([]float64, hours)
}

func (p *PowerToHeat) Decide(_ Context, remainingKW float64) bool { return remainingKW > 0 }

func (p *PowerToHeat) Generate(t int, remainingKW float64, _ Context) (float64, float64) {
	qOut := math.Min(remainingKW, p.NominalKW)
	if qOut < 0 {
		qOut = 0
	}
	elecKW := 0.0
	if p.Eta > 0 {
		elecKW = qOut / p.Eta
	}
	if t >= 0 && t < len(p.hourlyHeatKW) {
		p.hourlyHeatKW[t] = qOut
		p.hourlyElecKW[t] = elecKW
	}
	return qOut, qOut
}

func (p *PowerToHeat) Calculate(econ EconomicParams, durationH float64) TechResult {
	var heatMWh, elecMWh float64
	for _, h := range p.hourlyHeatKW {
		heatMWh += h * durationH / 1000
	}
	for _, e := range p.hourlyElecKW {
		elecMWh += e * durationH / 1000
	}
	ann := CalculateWGK(econ, elecMWh, heatMWh)
	co2, pe := SpecificEmissionsAndPE(econ, 0, elecMWh, heatMWh)
	return TechResult{
		AnnualHeatMWh: heatMWh, AnnualElectricityMWh: elecMWh,
		AnnualCostAnnuityEUR: ann.ATotalEUR, WGKEURPerMWh: ann.WGKEURPerMWh,
		SpecificCO2: co2, SpecificPrimaryEnergy: pe, HourlyPowerKW: p.hourlyHeatKW,
	}
}

func (p *PowerToHeat) OptimizationParameters() []OptimizationParam {
	return []OptimizationParam{{Name: p.TechName + ".nominal_kw", InitialValue: p.NominalKW, Min: 0, Max: p.NominalKW * 3}}
}

func (p *PowerToHeat) SetParameters(values map[string]float64) {
	if v, ok := values[p.TechName+".nominal_kw"]; ok {
		p.NominalKW = v
	}
}
