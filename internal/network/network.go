// Package network is the strongly-typed, index-addressable container for a
// district-heating network: junctions, pipes, heat consumers and
// circulation pumps. It owns no physics -- the hydraulics package computes
// results into the result slots this package declares.
package network

import (
	"math"
	"strconv"

	"netsim/internal/simerrors"
)

// Coord is a planar (x, y) coordinate.
type Coord struct {
	X, Y float64
}

// Junction is a network node.
type Junction struct {
	ID         int
	Coord      Coord
	PNomBar    float64
	TRefK      float64
	ResPBar    float64
	ResTK      float64
}

// Pipe connects two junctions; direction is meaningful (From is upstream by
// convention until flow-direction correction may swap it).
type Pipe struct {
	ID             int
	From, To       int
	StdType        string // empty if not catalogue-backed
	InnerDiameterM float64
	LengthKm       float64
	RoughnessMM    float64
	UValueWPerM2K  float64
	TExtK          float64
	Sections       int
	Optimised      bool
	Layer          string // "flow" or "return", for GeoJSON round-tripping

	ResVMeanMPerS  float64
	ResVDotM3PerS  float64
	ResPFromBar    float64
	ResPToBar      float64
	ResTFromK      float64
	ResTToK        float64
}

// HeatConsumer is a HAST (Hausanschlussstation): the consumer sits between
// the supply (To) and return (From) networks.
type HeatConsumer struct {
	ID              int
	From, To        int
	QextW           float64
	TReturnK        float64
	MinSupplyTempC  *float64 // nil means unconstrained
	LossCoeff       float64

	ResTFromK          float64
	ResTToK            float64
	ResVDotM3PerS      float64
	ResMDotFromKgPerS  float64
}

// CircPumpPressure is the pressure-controlled main producer.
type CircPumpPressure struct {
	ID            int
	ReturnJ, FlowJ int
	TFlowK        float64
	PFlowBar      float64
	PLiftBar      float64

	ResMDotFromKgPerS float64
	ResPFromBar       float64
	ResPToBar         float64
	ResTFromK         float64
	ResTToK           float64
}

// CircPumpMass is a mass-flow-controlled secondary producer.
type CircPumpMass struct {
	ID              int
	ReturnJ, FlowJ  int
	TFlowK          float64
	MDotKgPerS      float64
	PFlowBar        float64 // setpoint handed to the downstream flow-control element
	LoadSharePct    float64

	ResPFromBar   float64
	ResPToBar     float64
	ResTFromK     float64
	ResTToK       float64
}

// Network owns all elements. Pipes/consumers reference junctions by id
// only; controllers (owned by hydraulics callers) reference elements by id.
type Network struct {
	Junctions []Junction
	Pipes     []Pipe
	Consumers []HeatConsumer
	PumpsP    []CircPumpPressure
	PumpsM    []CircPumpMass

	coordIndex map[Coord]int
	Warnings   []string
}

// New returns an empty network.
func New() *Network {
	return &Network{coordIndex: make(map[Coord]int)}
}

// AddJunction inserts a junction, collapsing to an existing one sharing the
// exact same coordinate.
func (n *Network) AddJunction(c Coord, pNomBar, tRefK float64) int {
	if id, ok := n.coordIndex[c]; ok {
		return id
	}
	id := len(n.Junctions)
	n.Junctions = append(n.Junctions, Junction{ID: id, Coord: c, PNomBar: pNomBar, TRefK: tRefK})
	n.coordIndex[c] = id
	return id
}

// AddPipe adds a pipe either from a catalogue std type or explicit diameter.
// layer is a free-form tag ("flow"/"return") preserved for GeoJSON
// round-tripping; it has no effect on the hydraulic solve.
func (n *Network) AddPipe(from, to int, stdType string, diameterM, lengthKm, roughnessMM, uValue float64, sections int, tExtK float64, layer ...string) int {
	id := len(n.Pipes)
	l := ""
	if len(layer) > 0 {
		l = layer[0]
	}
	n.Pipes = append(n.Pipes, Pipe{
		ID: id, From: from, To: to, StdType: stdType,
		InnerDiameterM: diameterM, LengthKm: lengthKm, RoughnessMM: roughnessMM,
		UValueWPerM2K: uValue, TExtK: tExtK, Sections: sections, Layer: l,
	})
	return id
}

// AddHeatConsumer adds a HAST.
func (n *Network) AddHeatConsumer(from, to int, qextW, treturnK, lossCoeff float64) int {
	id := len(n.Consumers)
	n.Consumers = append(n.Consumers, HeatConsumer{ID: id, From: from, To: to, QextW: qextW, TReturnK: treturnK, LossCoeff: lossCoeff})
	return id
}

// AddCircPumpPressure adds the pressure-controlled main producer.
func (n *Network) AddCircPumpPressure(returnJ, flowJ int, pFlowBar, pLiftBar, tFlowK float64) int {
	id := len(n.PumpsP)
	n.PumpsP = append(n.PumpsP, CircPumpPressure{ID: id, ReturnJ: returnJ, FlowJ: flowJ, PFlowBar: pFlowBar, PLiftBar: pLiftBar, TFlowK: tFlowK})
	return id
}

// AddCircPumpMass adds a mass-flow-controlled secondary producer.
func (n *Network) AddCircPumpMass(returnJ, flowJ int, mdot, pFlowBar, tFlowK float64) int {
	id := len(n.PumpsM)
	n.PumpsM = append(n.PumpsM, CircPumpMass{ID: id, ReturnJ: returnJ, FlowJ: flowJ, MDotKgPerS: mdot, PFlowBar: pFlowBar, TFlowK: tFlowK})
	return id
}

// Validate enforces the topology invariants: exactly one main pump, no
// dangling references. Isolated junctions are only a warning.
func (n *Network) Validate() error {
	if len(n.PumpsP) != 1 {
		return simerrors.New(simerrors.TopologyError, "exactly one pressure-controlled main pump is required")
	}
	valid := func(j int) bool { return j >= 0 && j < len(n.Junctions) }
	for _, p := range n.Pipes {
		if !valid(p.From) || !valid(p.To) {
			return simerrors.New(simerrors.TopologyError, "pipe references unknown junction")
		}
	}
	for _, c := range n.Consumers {
		if !valid(c.From) || !valid(c.To) {
			return simerrors.New(simerrors.TopologyError, "dangling heat consumer")
		}
		if c.MinSupplyTempC != nil {
			// cannot validate against supply-T-max here (caller's domain), but
			// a NaN/inf guard catches malformed input early.
			if math.IsNaN(*c.MinSupplyTempC) || math.IsInf(*c.MinSupplyTempC, 0) {
				return simerrors.New(simerrors.InvalidInput, "invalid minimum supply temperature")
			}
		}
	}

	degree := make([]int, len(n.Junctions))
	touch := func(j int) { degree[j]++ }
	for _, p := range n.Pipes {
		touch(p.From)
		touch(p.To)
	}
	for _, c := range n.Consumers {
		touch(c.From)
		touch(c.To)
	}
	for _, p := range n.PumpsP {
		touch(p.ReturnJ)
		touch(p.FlowJ)
	}
	for _, p := range n.PumpsM {
		touch(p.ReturnJ)
		touch(p.FlowJ)
	}
	for _, j := range n.Junctions {
		if degree[j.ID] == 0 {
			n.Warnings = append(n.Warnings, "isolated junction "+strconv.Itoa(j.ID))
		}
	}
	return nil
}
