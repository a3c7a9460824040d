package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/catalog"
	"netsim/internal/hydraulics"
	"netsim/internal/network"
)

func steelCatalog() *catalog.Catalog {
	return catalog.New([]catalog.PipeType{
		{Name: "DN50", InnerDiameterM: 0.05, UValueWPerM2K: 0.25, Material: "steel"},
		{Name: "DN80", InnerDiameterM: 0.08, UValueWPerM2K: 0.28, Material: "steel"},
		{Name: "DN100", InnerDiameterM: 0.10, UValueWPerM2K: 0.30, Material: "steel"},
		{Name: "DN125", InnerDiameterM: 0.125, UValueWPerM2K: 0.32, Material: "steel"},
	})
}

func buildSingleConsumerNet() *network.Network {
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

func TestOptimizeDiameterTypes_RefusesDownsizeAboveVMax(t *testing.T) {
	n := buildSingleConsumerNet()
	cat := steelCatalog()
	solver := hydraulics.NewSolver()

	require.NoError(t, InitDiameterTypes(solver, n, cat, 1.0, "steel", 1.0))
	require.NoError(t, OptimizeDiameterTypes(solver, n, cat, 1.0, "steel", 1.0))

	for _, p := range n.Pipes {
		assert.True(t, p.Optimised)
		assert.LessOrEqual(t, p.ResVMeanMPerS, 1.0+1e-6)
	}
}

func TestCorrectFlowDirections_SwapsNegativeVelocityPipe(t *testing.T) {
	n := buildSingleConsumerNet()
	// Force a backwards pipe by swapping its junctions ahead of time.
	n.Pipes[0].From, n.Pipes[0].To = n.Pipes[0].To, n.Pipes[0].From

	solver := hydraulics.NewSolver()
	require.NoError(t, CorrectFlowDirections(solver, n))

	assert.GreaterOrEqual(t, n.Pipes[0].ResVMeanMPerS, 0.0)
}
