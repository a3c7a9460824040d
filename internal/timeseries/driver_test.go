package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/hydraulics"
	"netsim/internal/network"
)

func buildDriverNet() *network.Network {
	n := network.New()
	pumpFlow := n.AddJunction(network.Coord{X: 0, Y: 0}, 4.0, 363.15)
	pumpReturn := n.AddJunction(network.Coord{X: 0, Y: 1}, 3.0, 333.15)
	consSupply := n.AddJunction(network.Coord{X: 100, Y: 0}, 4.0, 363.15)
	consReturn := n.AddJunction(network.Coord{X: 100, Y: 1}, 3.0, 333.15)

	n.AddPipe(pumpFlow, consSupply, "DN100", 0.1, 0.1, 0.1, 0.3, 2, 283.15)
	n.AddPipe(consReturn, pumpReturn, "DN100", 0.1, 0.1, 0.1, 0.3, 2, 283.15)
	n.AddHeatConsumer(consReturn, consSupply, 50000, 333.15, 0)
	n.AddCircPumpPressure(pumpReturn, pumpFlow, 4.0, 1.0, 363.15)
	return n
}

type countingObserver struct{ calls int }

func (o *countingObserver) OnStepComplete(stats StepStats) { o.calls++ }

func TestDriver_Run_DrivesQextProfileAcrossHours(t *testing.T) {
	n := buildDriverNet()
	require.NoError(t, n.Validate())

	qextProfile := hydraulics.ArrayProfile{50000, 25000, 0}
	controllers := []hydraulics.Controller{
		hydraulics.NewBadPointPressureLiftController(0),
		&hydraulics.ConstantProfileController{ElementIdx: 0, Field: hydraulics.FieldConsumerQextW, Source: qextProfile},
	}

	obs := &countingObserver{}
	d := NewDriver()
	res := d.Run(n, controllers, 0, 3, obs)

	assert.Equal(t, 3, obs.calls)
	demand := res.Series(ProducerMain, -1, "building_demand_kW")
	require.Len(t, demand, 3)
	assert.InDelta(t, 50.0, demand[0], 1e-6)
	assert.InDelta(t, 25.0, demand[1], 1e-6)
	assert.InDelta(t, 0.0, demand[2], 1e-6)

	mdot := res.Series(ProducerMain, 0, "mass_flow")
	require.Len(t, mdot, 3)
	assert.True(t, res.Failed == nil || len(res.Failed) == 0)
}

// TestDriver_RunSimplified_ScalesLinearlyFromDesignPoint reproduces the
// simplified-mode scenario-sweep: a design-point solve at the network's
// configured 50 kW peak demand, then a 3-hour simplified run against a
// lower-demand profile. Losses (design generation minus design demand)
// must carry through unscaled, and temperatures/pressures must stay
// pinned at their design values.
func TestDriver_RunSimplified_ScalesLinearlyFromDesignPoint(t *testing.T) {
	n := buildDriverNet()
	require.NoError(t, n.Validate())

	d := NewDriver()
	designControllers := []hydraulics.Controller{hydraulics.NewBadPointPressureLiftController(0)}
	designResults := d.Run(n, designControllers, 0, 1, nil)
	require.Empty(t, designResults.Failed)

	designGenKW := designResults.Series(ProducerMain, 0, "qext_kW")[0]
	designDemandKW := designResults.Series(ProducerMain, -1, "building_demand_kW")[0]
	designLossKW := designGenKW - designDemandKW
	designFlowTempC := designResults.Series(ProducerMain, 0, "flow_temp")[0]

	profiles := []ConsumerDemandProfile{{ConsumerIdx: 0, QextWSource: hydraulics.ArrayProfile{50000, 25000, 0}}}
	res, err := d.RunSimplified(n, profiles, designResults, 0, 3)
	require.NoError(t, err)

	qext := res.Series(ProducerMain, 0, "qext_kW")
	require.Len(t, qext, 3)
	assert.InDelta(t, 50+designLossKW, qext[0], 1e-6)
	assert.InDelta(t, 25+designLossKW, qext[1], 1e-6)
	assert.InDelta(t, 0+designLossKW, qext[2], 1e-6)

	flowTemp := res.Series(ProducerMain, 0, "flow_temp")
	require.Len(t, flowTemp, 3)
	assert.InDelta(t, designFlowTempC, flowTemp[0], 1e-9)
	assert.InDelta(t, designFlowTempC, flowTemp[2], 1e-9)
}

func TestDriver_RunSimplified_ErrorsWithoutDesignPointData(t *testing.T) {
	n := buildDriverNet()
	require.NoError(t, n.Validate())

	d := NewDriver()
	_, err := d.RunSimplified(n, nil, NewResults(), 0, 1)
	require.Error(t, err)
}
