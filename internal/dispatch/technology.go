package dispatch

// Context carries the per-hour ambient information a technology's generate()
// needs beyond the remaining residual load: network temperatures, weather,
// and the COP table lookups used by heat pumps.
type Context struct {
	Hour             int
	SupplyTempC      float64
	ReturnTempC      float64
	OutdoorTempC     float64
	SolarIrradWPerM2 float64 // on-plane global irradiance, tilted-surface
	IncidenceAngleDeg float64 // collector incidence angle this hour
	SourceTempC      float64 // river/waste/geothermal source temperature this hour

	StorageUpperTempC float64
	StorageLowerTempC float64
	StorageEnergyKWh  float64
	HasStorage        bool
}

// TechResult is the annualised output of one technology's calculate() pass.
type TechResult struct {
	AnnualHeatMWh        float64
	AnnualElectricityMWh float64 // signed: + consumption, - generation (CHP)
	AnnualFuelMWh        float64
	AnnualCostAnnuityEUR float64
	SpecificCO2          float64 // tCO2/MWh heat
	SpecificPrimaryEnergy float64
	WGKEURPerMWh         float64
	HourlyPowerKW        []float64
}

// OptimizationParam is one scalar the optimiser may vary, with its bounds.
type OptimizationParam struct {
	Name         string
	InitialValue float64
	Min, Max     float64
}

// Technology is the capability set every dispatchable generator must
// implement: allocate result storage, decide whether it should run this
// hour, produce heat, and aggregate an annual result.
type Technology interface {
	Name() string
	Priority() int

	// InitOperation allocates per-hour result arrays for a run of the given length.
	InitOperation(hours int)

	// Decide reports whether this technology should attempt to run this
	// hour, given a control strategy's view of storage state and the
	// current residual demand.
	Decide(ctx Context, remainingKW float64) bool

	// Generate produces heat for the current hour; Q_out_kW is what counts
	// toward meeting demand, Q_heat_produced_kW may differ (solar thermal
	// output above the remaining load, waste-heat pumps netting out their
	// electricity).
	Generate(t int, remainingKW float64, ctx Context) (qOutKW, qHeatProducedKW float64)

	// Calculate aggregates the hourly record into an annual TechResult.
	Calculate(econ EconomicParams, durationH float64) TechResult

	// OptimizationParameters declares the sizing variables this technology
	// exposes to the optimiser; nil/empty means none.
	OptimizationParameters() []OptimizationParam

	// SetParameters writes optimiser-chosen values back by name.
	SetParameters(values map[string]float64)
}

// Strategy decides a technology's on/off state from storage state and
// demand, independent of the generation physics itself.
type Strategy interface {
	Decide(onState bool, storageUpperTempC, storageLowerTempC, remainingKW float64) bool
}

// ThresholdStrategy turns on below ChargeOnTempC (or when remaining demand is
// positive and storage is absent) and off above ChargeOffTempC, covering the
// CHP/PowerToHeat "charge a buffer" pattern from the spec.
type ThresholdStrategy struct {
	ChargeOnTempC  float64
	ChargeOffTempC float64
}

func (s ThresholdStrategy) Decide(onState bool, upperC, _ float64, remainingKW float64) bool {
	if remainingKW <= 0 {
		return false
	}
	if onState {
		return upperC < s.ChargeOffTempC
	}
	return upperC < s.ChargeOnTempC
}

// AlwaysOnStrategy runs whenever there is remaining demand; used by
// technologies with no storage-coupled buffering logic (boilers, heat pumps).
type AlwaysOnStrategy struct{}

func (AlwaysOnStrategy) Decide(_ bool, _, _, remainingKW float64) bool { return remainingKW > 0 }
