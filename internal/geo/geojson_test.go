package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/network"
)

func buildSmallNet() *network.Network {
	n := network.New()
	a := n.AddJunction(network.Coord{X: 0, Y: 0}, 4.0, 363.15)
	b := n.AddJunction(network.Coord{X: 100, Y: 0}, 4.0, 363.15)
	c := n.AddJunction(network.Coord{X: 0, Y: 10}, 3.0, 333.15)
	d := n.AddJunction(network.Coord{X: 100, Y: 10}, 3.0, 333.15)
	n.AddPipe(a, b, "DN100", 0.1, 0.1, 0.1, 0.3, 2, 283.15, FeatureFlow)
	n.AddPipe(d, c, "DN100", 0.1, 0.1, 0.1, 0.3, 2, 283.15, FeatureReturn)
	n.AddHeatConsumer(d, b, 50000, 333.15, 0)
	return n
}

func TestWriteThenReadNetwork_RoundTripsPipesAndConsumers(t *testing.T) {
	n := buildSmallNet()
	doc := WriteNetwork(n)

	assert.Equal(t, "2.0", doc.Metadata.Version)
	assert.Len(t, doc.Features, 3)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.True(t, IsUnified(raw))

	readBack, err := ReadNetwork(raw)
	require.NoError(t, err)
	assert.Len(t, readBack.Pipes, 2)
	assert.Len(t, readBack.Consumers, 1)
	assert.InDelta(t, 50000, readBack.Consumers[0].QextW, 1e-6)
}

func TestIsUnified_RejectsLegacyFileWithoutMetadata(t *testing.T) {
	legacy := []byte(`{"type":"FeatureCollection","features":[]}`)
	assert.False(t, IsUnified(legacy))
}

func TestWriteThenReadNetwork_RoundTripsPumps(t *testing.T) {
	n := buildSmallNet()
	flowJ := n.AddJunction(network.Coord{X: 200, Y: 0}, 4.0, 363.15)
	returnJ := n.AddJunction(network.Coord{X: 200, Y: 10}, 3.0, 333.15)
	n.AddCircPumpPressure(returnJ, flowJ, 4.0, 1.5, 363.15)
	n.AddCircPumpMass(returnJ, flowJ, 2.5, 3.8, 358.15)

	raw, err := json.Marshal(WriteNetwork(n))
	require.NoError(t, err)

	readBack, err := ReadNetwork(raw)
	require.NoError(t, err)
	require.Len(t, readBack.PumpsP, 1)
	require.Len(t, readBack.PumpsM, 1)
	assert.InDelta(t, 4.0, readBack.PumpsP[0].PFlowBar, 1e-6)
	assert.InDelta(t, 1.5, readBack.PumpsP[0].PLiftBar, 1e-6)
	assert.InDelta(t, 2.5, readBack.PumpsM[0].MDotKgPerS, 1e-6)
}
