package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJunction_CollapsesDuplicateCoordinates(t *testing.T) {
	n := New()
	a := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	b := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	assert.Equal(t, a, b)
	assert.Len(t, n.Junctions, 1)
}

func TestAddJunction_DistinctCoordinatesGetDistinctIDs(t *testing.T) {
	n := New()
	a := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	b := n.AddJunction(Coord{100, 0}, 1.0, 333.15)
	assert.NotEqual(t, a, b)
	assert.Len(t, n.Junctions, 2)
}

func TestValidate_RequiresExactlyOneMainPump(t *testing.T) {
	n := New()
	a := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	b := n.AddJunction(Coord{100, 0}, 1.0, 333.15)
	n.AddPipe(a, b, "DN100", 0.1, 0.1, 0.1, 0.3, 2, 283.15)

	err := n.Validate()
	require.Error(t, err)
}

func TestValidate_IsolatedJunctionIsOnlyAWarning(t *testing.T) {
	n := New()
	a := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	b := n.AddJunction(Coord{100, 0}, 1.0, 333.15)
	n.AddJunction(Coord{500, 500}, 1.0, 333.15) // isolated
	n.AddCircPumpPressure(b, a, 4.0, 1.0, 363.15)

	err := n.Validate()
	require.NoError(t, err)
	assert.Len(t, n.Warnings, 1)
}

func TestValidate_DanglingConsumerIsTopologyError(t *testing.T) {
	n := New()
	a := n.AddJunction(Coord{0, 0}, 1.0, 333.15)
	n.AddCircPumpPressure(a, a, 4.0, 1.0, 363.15)
	n.AddHeatConsumer(a, 99, 50000, 333.15, 0)

	err := n.Validate()
	require.Error(t, err)
}
