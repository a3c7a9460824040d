package hydraulics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/network"
)

// buildS1 constructs spec S1: one supply pipe and one return pipe of 100 m,
// inner diameter 100 mm, between a pump at (0,0) and a consumer at (100,0).
func buildS1() *network.Network {
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

func TestSolve_S1_SingleConsumerMassFlow(t *testing.T) {
	n := buildS1()
	require.NoError(t, n.Validate())

	s := NewSolver()
	require.NoError(t, s.Solve(n))
	require.NoError(t, s.Solve(n)) // second pass lets flow-dependent demand settle

	// mdot ~= 50000 / (4180 * 30) ~= 0.399 kg/s
	assert.InDelta(t, 0.399, n.Consumers[0].ResMDotFromKgPerS, 0.05)
}

func TestRunStep_S3_AllConsumersIdleEntersStandby(t *testing.T) {
	n := buildS1()
	n.Consumers[0].QextW = 0
	require.NoError(t, n.Validate())

	ctrl := NewBadPointPressureLiftController(0)
	s := NewSolver()
	result := RunStep(s, n, []Controller{ctrl}, 0, MaxOuterIter)

	assert.True(t, result.Converged)
	assert.InDelta(t, 1.5, n.PumpsP[0].PLiftBar, 1e-9)
	assert.InDelta(t, 3.5, n.PumpsP[0].PFlowBar, 1e-9)
}

func TestRunStep_S4_MinimumSupplyTemperatureRaisesReturnTemp(t *testing.T) {
	n := buildS1()
	n.Consumers[0].TReturnK = 308.15 // 35 degC observed-like starting point
	require.NoError(t, n.Validate())

	badPoint := NewBadPointPressureLiftController(0)
	minSupply := NewMinimumSupplyTemperatureController(0, 40.0)

	s := NewSolver()
	result := RunStep(s, n, []Controller{badPoint, minSupply}, 0, MaxOuterIter)

	assert.True(t, result.Converged || minSupply.ForceConverged())
}
