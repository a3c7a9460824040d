package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalculateMix_S6_CHPAndBoiler reproduces spec scenario S6: a constant
// 300 kW residual load for 8760 hours, CHP priority 1 at 200 kW nominal,
// gas boiler priority 2 at 500 kW nominal. Expected: CHP covers 200 kW
// every hour (1752 MWh/yr), the boiler covers the remaining 100 kW every
// hour (876 MWh/yr), and nothing is unmet.
func TestCalculateMix_S6_CHPAndBoiler(t *testing.T) {
	const hours = 8760
	chp := NewCHP("chp1", 1, 200, 0.45, 0.35)
	boiler := NewGasBoiler("boiler1", 2, 500)

	sys := NewEnergySystem([]Technology{boiler, chp}, nil, nil)

	qNet := make([]float64, hours)
	for i := range qNet {
		qNet[i] = 300
	}
	ctxFn := func(t int) Context { return Context{Hour: t, SupplyTempC: 80, ReturnTempC: 55} }

	sys.CalculateMix(qNet, ctxFn)

	chpResult := chp.Calculate(EconomicParams{}, 1)
	boilerResult := boiler.Calculate(EconomicParams{}, 1)

	assert.InDelta(t, 1752, chpResult.AnnualHeatMWh, 1e-6)
	assert.InDelta(t, 876, boilerResult.AnnualHeatMWh, 1e-6)
	assert.InDelta(t, 0, sys.UnmetDemandKWh(1), 1e-6)
}

func TestCalculateWGK_AnnuityRoundTrip(t *testing.T) {
	econ := EconomicParams{
		InvestmentEUR: 100000, LifetimeYears: 20, InstallFactor: 0.02, InspectionFactor: 0.01,
		OperationHours: 100, LabourRateEURPerH: 30, InterestRate: 0.04, PriceEscalation: 0.02,
		HorizonYears: 20, FuelPriceEURPerMWh: 60,
	}
	ann := CalculateWGK(econ, 500, 400)
	require.Greater(t, ann.ATotalEUR, 0.0)
	// WGK * annual_heat_MWh == A_total, to within numerical tolerance
	assert.InDelta(t, ann.ATotalEUR, ann.WGKEURPerMWh*400, ann.ATotalEUR*1e-9+1e-6)
}

func TestHeatPump_AqvaHeatSentinelExcludedFromTotals(t *testing.T) {
	hp := NewHeatPump("aqva", 1, SourceAqvaHeat, 100, nil)
	hp.InitOperation(1)
	hp.Generate(0, 100, Context{SupplyTempC: 60, SourceTempC: 10})
	result := hp.Calculate(EconomicParams{}, 1)

	assert.Equal(t, -1.0, result.WGKEURPerMWh)
	assert.Equal(t, -1.0, result.SpecificCO2)
}

// TestSolarThermal_GenerateCapsQOutToRemainingDemand verifies that surplus
// useful heat above the residual load is reported via Q_heat_produced_kW
// without being credited against remainingKW, so CalculateMix can route it
// into storage net inflow instead of silently discarding it.
func TestSolarThermal_GenerateCapsQOutToRemainingDemand(t *testing.T) {
	st := NewSolarThermal("solar1", 0, 1000, FlatPlate)
	st.InitOperation(1)
	ctx := Context{SupplyTempC: 70, ReturnTempC: 50, OutdoorTempC: 15, SolarIrradWPerM2: 800, IncidenceAngleDeg: 10}

	qOut, qProduced := st.Generate(0, 5, ctx)

	require.Greater(t, qProduced, 5.0)
	assert.InDelta(t, 5, qOut, 1e-9)
}

func TestOptimizer_FindsLowerCostWithinBounds(t *testing.T) {
	params := []OptimizationParam{{Name: "boiler1.nominal_kw", InitialValue: 300, Min: 100, Max: 500}}
	eval := func(values map[string]float64) (bool, float64, float64, float64) {
		kw := values["boiler1.nominal_kw"]
		// a contrived convex cost surface minimised at kw=250
		wgk := (kw-250)*(kw-250)/1000 + 50
		return true, wgk, 0.2, 1.1
	}
	opt := NewOptimizer(params, Weights{CostWGK: 1}, eval)
	opt.Restarts = 3
	result := opt.Optimize()

	require.True(t, result.Feasible)
	assert.InDelta(t, 250, result.Values["boiler1.nominal_kw"], 15)
}
