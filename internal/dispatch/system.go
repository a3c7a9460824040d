package dispatch

import "sort"

// Storage is the narrow capability EnergySystem needs from a seasonal
// thermal storage: upper/lower temperatures to feed strategies, and a
// per-hour Step to apply net inflow.
type Storage interface {
	UpperTempC() float64
	LowerTempC() float64
	StoredEnergyKWh(tReturnC float64) float64
	Step(t int, qInKW, qOutKW, tFlowInC, tReturnC float64)
}

// ContextFunc builds the per-hour ambient Context (weather, network
// temperatures, COP source temperatures) the technologies need to generate.
type ContextFunc func(t int) Context

// EnergySystem runs the priority-ordered dispatch loop described in the
// spec's generator-mix dispatcher: each hour, every active technology
// (per its strategy's decide()) produces heat against the residual load in
// strict priority order, and any seasonal storage absorbs the net
// imbalance.
type EnergySystem struct {
	Technologies []Technology
	Strategies   map[string]Strategy // keyed by technology name; AlwaysOnStrategy if absent
	Storage      Storage

	onState map[string]bool

	hourlyResidualKW [][]float64 // per technology, residual load AFTER it ran
	hourlyTotalKW    []float64
	unmetKW          []float64
}

// NewEnergySystem sorts technologies into priority order (ties broken by
// insertion order, per the spec's ordering guarantee) and returns a system
// ready for CalculateMix.
func NewEnergySystem(techs []Technology, strategies map[string]Strategy, store Storage) *EnergySystem {
	ordered := make([]Technology, len(techs))
	copy(ordered, techs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority() < ordered[j].Priority() })
	if strategies == nil {
		strategies = map[string]Strategy{}
	}
	return &EnergySystem{Technologies: ordered, Strategies: strategies, Storage: store, onState: map[string]bool{}}
}

func (e *EnergySystem) strategyFor(name string) Strategy {
	if s, ok := e.Strategies[name]; ok {
		return s
	}
	return AlwaysOnStrategy{}
}

// CalculateMix runs the dispatch loop over qNet[t] for t in [0, len(qNet)),
// using ctxFn to build each hour's ambient Context. It returns nothing: the
// per-hour residual-after-each-technology table and the unmet demand are
// read afterwards through HourlyResidualKW and UnmetDemandKWh.
func (e *EnergySystem) CalculateMix(qNet []float64, ctxFn ContextFunc) {
	hours := len(qNet)
	for _, t := range e.Technologies {
		t.InitOperation(hours)
	}
	e.hourlyResidualKW = make([][]float64, len(e.Technologies))
	for i := range e.hourlyResidualKW {
		e.hourlyResidualKW[i] = make([]float64, hours)
	}
	e.hourlyTotalKW = make([]float64, hours)
	e.unmetKW = make([]float64, hours)

	for t := 0; t < hours; t++ {
		ctx := ctxFn(t)
		if e.Storage != nil {
			ctx.HasStorage = true
			ctx.StorageUpperTempC = e.Storage.UpperTempC()
			ctx.StorageLowerTempC = e.Storage.LowerTempC()
			ctx.StorageEnergyKWh = e.Storage.StoredEnergyKWh(ctx.ReturnTempC)
		}

		remaining := qNet[t]
		var producedTotal float64
		var storageInKW float64

		for i, tech := range e.Technologies {
			strat := e.strategyFor(tech.Name())
			on := e.onState[tech.Name()]
			on = strat.Decide(on, ctx.StorageUpperTempC, ctx.StorageLowerTempC, remaining)
			e.onState[tech.Name()] = on

			if on && tech.Decide(ctx, remaining) {
				qOut, qProduced := tech.Generate(t, remaining, ctx)
				remaining -= qOut
				producedTotal += qOut
				// heat produced beyond what counted toward demand (e.g. a
				// solar collector running past the point demand is met)
				// becomes storage inflow.
				if qProduced > qOut {
					storageInKW += qProduced - qOut
				}
			}
			e.hourlyResidualKW[i][t] = remaining
		}

		if e.Storage != nil {
			qIn := storageInKW
			qOut := 0.0
			if remaining > 0 {
				qOut = remaining
				remaining = 0
			}
			e.Storage.Step(t, qIn, qOut, ctx.SupplyTempC, ctx.ReturnTempC)
			producedTotal += qOut
		}

		e.hourlyTotalKW[t] = producedTotal
		if remaining > 0 {
			e.unmetKW[t] = remaining
		}
	}
}

// HourlyResidualKW returns the per-hour residual load remaining after the
// named technology's slot in the priority order.
func (e *EnergySystem) HourlyResidualKW(techIdx int) []float64 { return e.hourlyResidualKW[techIdx] }

// UnmetDemandKWh returns the annual total of residual load left over after
// every technology (and storage) has run, per durationH hour length.
func (e *EnergySystem) UnmetDemandKWh(durationH float64) float64 {
	var total float64
	for _, v := range e.unmetKW {
		total += v * durationH
	}
	return total
}

// TechShare is one technology's share of the annual aggregate result.
type TechShare struct {
	Name                 string
	Result               TechResult
	SharePercent         float64
}

// EnergySystemResults is the aggregated annual dispatch outcome.
type EnergySystemResults struct {
	Shares                  []TechShare
	AnnualTotalHeatMWh      float64
	UnmetDemandMWh          float64
	WeightedWGKEURPerMWh    float64
	WeightedCO2             float64
	WeightedPrimaryEnergy   float64
}

// AggregateResults calculates every technology's annual TechResult and
// combines them into a heat-share-weighted system summary. AqvaHeat's
// sentinel WGK=-1/specific_co2=-1 entries are excluded from the weighted
// totals, per design.
func (e *EnergySystem) AggregateResults(econ map[string]EconomicParams, durationH float64) EnergySystemResults {
	var shares []TechShare
	var totalHeatMWh float64

	for _, tech := range e.Technologies {
		result := tech.Calculate(econ[tech.Name()], durationH)
		shares = append(shares, TechShare{Name: tech.Name(), Result: result})
		totalHeatMWh += result.AnnualHeatMWh
	}

	var weightedWGK, weightedCO2, weightedPE float64
	var weightedDenomWGK, weightedDenomCO2 float64
	for i := range shares {
		s := &shares[i]
		if totalHeatMWh > 0 {
			s.SharePercent = 100 * s.Result.AnnualHeatMWh / totalHeatMWh
		}
		isSentinel := s.Result.WGKEURPerMWh == -1 && s.Result.SpecificCO2 == -1
		if isSentinel {
			continue
		}
		weightedWGK += s.Result.WGKEURPerMWh * s.Result.AnnualHeatMWh
		weightedCO2 += s.Result.SpecificCO2 * s.Result.AnnualHeatMWh
		weightedPE += s.Result.SpecificPrimaryEnergy * s.Result.AnnualHeatMWh
		weightedDenomWGK += s.Result.AnnualHeatMWh
		weightedDenomCO2 += s.Result.AnnualHeatMWh
	}

	res := EnergySystemResults{Shares: shares, AnnualTotalHeatMWh: totalHeatMWh, UnmetDemandMWh: e.UnmetDemandKWh(durationH) / 1000}
	if weightedDenomWGK > 0 {
		res.WeightedWGKEURPerMWh = weightedWGK / weightedDenomWGK
		res.WeightedCO2 = weightedCO2 / weightedDenomCO2
		res.WeightedPrimaryEnergy = weightedPE / weightedDenomCO2
	}
	return res
}
