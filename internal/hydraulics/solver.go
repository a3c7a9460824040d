// Package hydraulics implements the bidirectional thermo-hydraulic inner
// solver and the outer controller loop that wraps it, per the network
// engine's steady-state solve contract.
package hydraulics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"netsim/internal/catalog"
	"netsim/internal/network"
	"netsim/internal/simerrors"
)

// MaxInnerIter is the inner Newton-like iteration budget, per design.
const MaxInnerIter = 100

// edge is a pipe viewed as a conductive branch between two junctions.
type edge struct {
	pipeIdx  int
	a, b     int // junction ids
	lenM     float64
	diaM     float64
	roughMM  float64
}

// Solver runs the bidirectional inner solve: continuity + momentum +
// energy on the graph, holding all setpoints fixed. It never mutates a
// setpoint -- only result slots.
type Solver struct {
	MaxIter int
}

// NewSolver returns a solver configured with the default iteration budget.
func NewSolver() *Solver { return &Solver{MaxIter: MaxInnerIter} }

// Solve computes junction pressures/temperatures, pipe velocities/
// temperatures and consumer/pump flow rates for the network's current
// setpoints. It returns a *simerrors.Error of kind SolverNonConvergence if
// the flow iteration fails to settle within MaxIter.
func (s *Solver) Solve(net *network.Network) error {
	if len(net.PumpsP) == 0 {
		return simerrors.New(simerrors.TopologyError, "no main pump to solve against")
	}
	main := net.PumpsP[0]

	edges := make([]edge, len(net.Pipes))
	for i, p := range net.Pipes {
		d := p.InnerDiameterM
		if d <= 0 {
			d = 0.05
		}
		edges[i] = edge{pipeIdx: i, a: p.From, b: p.To, lenM: p.LengthKm * 1000, diaM: d, roughMM: p.RoughnessMM}
	}

	n := len(net.Junctions)
	mdot := make([]float64, len(edges)) // signed flow a->b, initial guess
	for i := range mdot {
		mdot[i] = 0.05
	}

	// Known (Dirichlet) pressure nodes: the main pump's two terminals.
	knownP := map[int]float64{
		main.FlowJ:   main.PFlowBar,
		main.ReturnJ: main.PFlowBar - main.PLiftBar,
	}

	var pressures []float64
	converged := false
	for iter := 0; iter < s.iterBudget(); iter++ {
		conductance := make([]float64, len(edges))
		for i, e := range edges {
			conductance[i] = pipeConductance(e, mdot[i])
		}

		p, err := solveNodalPressures(n, edges, conductance, knownP, net)
		if err != nil {
			return simerrors.Wrap(simerrors.SolverNonConvergence, "nodal pressure solve failed", err)
		}
		pressures = p

		maxDelta := 0.0
		for i, e := range edges {
			newFlow := conductance[i] * (pressures[e.a] - pressures[e.b])
			if d := math.Abs(newFlow - mdot[i]); d > maxDelta {
				maxDelta = d
			}
			mdot[i] = newFlow
		}
		if maxDelta < 1e-5 {
			converged = true
			break
		}
	}
	if !converged {
		return simerrors.New(simerrors.SolverNonConvergence, "flow iteration did not settle")
	}

	writeJunctionPressures(net, pressures)
	writePipeFlows(net, edges, mdot)
	writePumpAndConsumerFlows(net)
	solveTemperatures(net, edges, mdot)
	return nil
}

func (s *Solver) iterBudget() int {
	if s.MaxIter <= 0 {
		return MaxInnerIter
	}
	return s.MaxIter
}

// pipeConductance linearizes the Darcy-Weisbach quadratic pressure drop
// around the current flow estimate, giving mdot = conductance * deltaP_bar.
func pipeConductance(e edge, mdotGuess float64) float64 {
	rho := catalog.WaterRhoKgPerM3(60)
	area := math.Pi / 4 * e.diaM * e.diaM
	absFlow := math.Abs(mdotGuess)
	if absFlow < 1e-4 {
		absFlow = 1e-4
	}
	v := absFlow / (rho * area)
	re := reynolds(v, e.diaM)
	f := frictionFactor(re, e.roughMM/1000/e.diaM)

	// deltaP[Pa] = f * (L/D) * rho * v^2 / 2 ; deltaP = k * mdot^2 (since v ~ mdot)
	k := f * (e.lenM / e.diaM) * rho / (2 * math.Pow(rho*area, 2))
	kBar := k / 1e5
	if kBar*absFlow < 1e-12 {
		return 1e6 // near-zero flow: conductance is effectively unconstrained
	}
	return 1.0 / (kBar * absFlow)
}

func reynolds(v, d float64) float64 {
	const nu = 4.0e-7 // kinematic viscosity of water at ~60 degC, m^2/s
	if d <= 0 {
		return 0
	}
	return math.Abs(v) * d / nu
}

// frictionFactor uses the Swamee-Jain explicit approximation to the
// Colebrook-White equation for turbulent flow, falling back to a laminar
// formula at low Reynolds numbers.
func frictionFactor(re, relRough float64) float64 {
	if re < 2300 {
		if re < 1 {
			re = 1
		}
		return 64 / re
	}
	denom := math.Log10(relRough/3.7 + 5.74/math.Pow(re, 0.9))
	return 0.25 / (denom * denom)
}

// solveNodalPressures solves the linear KCL system A*p_unknown = b for all
// junctions not pinned by a Dirichlet boundary condition (the main pump's
// two terminals), with consumers and secondary pumps contributing fixed
// mass-flow injections rather than conductance edges.
func solveNodalPressures(n int, edges []edge, conductance []float64, knownP map[int]float64, net *network.Network) ([]float64, error) {
	unknownIdx := make(map[int]int)
	var unknowns []int
	for j := 0; j < n; j++ {
		if _, fixed := knownP[j]; fixed {
			continue
		}
		unknownIdx[j] = len(unknowns)
		unknowns = append(unknowns, j)
	}
	m := len(unknowns)
	if m == 0 {
		p := make([]float64, n)
		for j, v := range knownP {
			p[j] = v
		}
		return p, nil
	}

	A := mat.NewDense(m, m, nil)
	b := make([]float64, m)

	addTerm := func(row, col int, val float64) {
		if row < 0 {
			return
		}
		if col < 0 {
			return
		}
		A.Set(row, col, A.At(row, col)+val)
	}

	for i, e := range edges {
		g := conductance[i]
		ra, aFixed := unknownIdx[e.a]
		rb, bFixed := unknownIdx[e.b]
		if !aFixed {
			ra = -1
		}
		if !bFixed {
			rb = -1
		}
		if ra >= 0 {
			addTerm(ra, ra, g)
			if rb >= 0 {
				addTerm(ra, rb, -g)
			} else {
				b[ra] += g * knownP[e.b]
			}
		}
		if rb >= 0 {
			addTerm(rb, rb, g)
			if ra >= 0 {
				addTerm(rb, ra, -g)
			} else {
				b[rb] += g * knownP[e.a]
			}
		}
	}

	// Consumers: fixed mdot drawn from the supply junction (To) and returned
	// to the return junction (From) -- a current source, not a conductance edge.
	for _, c := range net.Consumers {
		mdot := consumerMassFlow(c)
		if idx, ok := unknownIdx[c.From]; ok {
			b[idx] += mdot
		}
		if idx, ok := unknownIdx[c.To]; ok {
			b[idx] -= mdot
		}
	}
	// Secondary (mass-flow-controlled) producers: fixed injection return->flow.
	for _, p := range net.PumpsM {
		if idx, ok := unknownIdx[p.ReturnJ]; ok {
			b[idx] -= p.MDotKgPerS
		}
		if idx, ok := unknownIdx[p.FlowJ]; ok {
			b[idx] += p.MDotKgPerS
		}
	}

	bVec := mat.NewVecDense(m, b)
	var x mat.VecDense
	if err := x.SolveVec(A, bVec); err != nil {
		return nil, err
	}

	p := make([]float64, n)
	for j, v := range knownP {
		p[j] = v
	}
	for i, j := range unknowns {
		p[j] = x.AtVec(i)
	}
	return p, nil
}

func consumerMassFlow(c network.HeatConsumer) float64 {
	if c.QextW <= 0 {
		return 0
	}
	dT := 30.0
	if c.ResTFromK > 0 && c.ResTToK > c.ResTFromK {
		dT = c.ResTToK - c.ResTFromK
	}
	if dT < 1 {
		dT = 1
	}
	return c.QextW / (catalog.WaterCpJPerKgK * dT)
}

func writeJunctionPressures(net *network.Network, p []float64) {
	for i := range net.Junctions {
		net.Junctions[i].ResPBar = p[net.Junctions[i].ID]
	}
}

func writePipeFlows(net *network.Network, edges []edge, mdot []float64) {
	rho := catalog.WaterRhoKgPerM3(60)
	for i, e := range edges {
		pipe := &net.Pipes[i]
		area := math.Pi / 4 * e.diaM * e.diaM
		pipe.ResVDotM3PerS = mdot[i] / rho
		pipe.ResVMeanMPerS = mdot[i] / (rho * area)
		pipe.ResPFromBar = net.Junctions[e.a].ResPBar
		pipe.ResPToBar = net.Junctions[e.b].ResPBar
	}
}

func writePumpAndConsumerFlows(net *network.Network) {
	for i := range net.Consumers {
		c := &net.Consumers[i]
		c.ResMDotFromKgPerS = consumerMassFlow(*c)
		c.ResVDotM3PerS = c.ResMDotFromKgPerS / catalog.WaterRhoKgPerM3(60)
	}
	for i := range net.PumpsP {
		pp := &net.PumpsP[i]
		var total float64
		for _, c := range net.Consumers {
			total += consumerMassFlow(c)
		}
		for _, sp := range net.PumpsM {
			total -= sp.MDotKgPerS // secondary producers cover part of the load
		}
		if total < 0 {
			total = 0
		}
		pp.ResMDotFromKgPerS = total
		pp.ResPFromBar = net.Junctions[pp.ReturnJ].ResPBar
		pp.ResPToBar = net.Junctions[pp.FlowJ].ResPBar
	}
	for i := range net.PumpsM {
		mp := &net.PumpsM[i]
		mp.ResPFromBar = net.Junctions[mp.ReturnJ].ResPBar
		mp.ResPToBar = net.Junctions[mp.FlowJ].ResPBar
	}
}
