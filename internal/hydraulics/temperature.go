package hydraulics

import (
	"math"

	"netsim/internal/catalog"
	"netsim/internal/network"
)

// solveTemperatures propagates temperatures through the graph in flow-
// direction topological order: each junction's temperature is the
// flow-weighted mix of its incoming edges, and each pipe applies an
// exponential cooling law to whatever arrives at its upstream end.
func solveTemperatures(net *network.Network, edges []edge, mdot []float64) {
	n := len(net.Junctions)
	type inflow struct {
		mdot float64
		tK   float64
	}
	incoming := make([][]inflow, n)
	indegree := make([]int, n)
	outEdges := make([][]int, n)
	edgeFrom := make([]int, len(edges))
	edgeTo := make([]int, len(edges))
	edgeFlow := make([]float64, len(edges))

	for i := range edges {
		from, to, flow := edges[i].a, edges[i].b, mdot[i]
		if flow < 0 {
			from, to, flow = edges[i].b, edges[i].a, -flow
		}
		edgeFrom[i], edgeTo[i], edgeFlow[i] = from, to, flow
		outEdges[from] = append(outEdges[from], i)
		indegree[to]++
	}

	// Seed known sources: the main pump's flow junction and any secondary
	// producer's flow junction carry a fixed supply temperature; the
	// consumers' From junctions carry the controlled return temperature.
	tempKnown := make([]float64, n)
	hasTemp := make([]bool, n)
	for _, pp := range net.PumpsP {
		tempKnown[pp.FlowJ] = pp.TFlowK
		hasTemp[pp.FlowJ] = true
	}
	for _, mp := range net.PumpsM {
		tempKnown[mp.FlowJ] = mp.TFlowK
		hasTemp[mp.FlowJ] = true
	}
	for _, c := range net.Consumers {
		tempKnown[c.From] = c.TReturnK
		hasTemp[c.From] = true
	}

	order, ok := kahnOrder(n, outEdges, edgeTo, indegree)
	if !ok {
		// A mesh with a cycle: fall back to visiting every junction once
		// in index order rather than failing the whole step; no further
		// relaxation passes are made.
		order = relaxationOrder(n)
	}

	junctionT := make([]float64, n)
	for _, j := range order {
		if hasTemp[j] {
			junctionT[j] = tempKnown[j]
		} else if len(incoming[j]) == 0 {
			junctionT[j] = net.Junctions[j].TRefK
		} else {
			var num, den float64
			for _, in := range incoming[j] {
				num += in.mdot * in.tK
				den += in.mdot
			}
			if den <= 0 {
				junctionT[j] = net.Junctions[j].TRefK
			} else {
				junctionT[j] = num / den
			}
		}

		for _, ei := range outEdges[j] {
			to := edgeTo[ei]
			flow := edgeFlow[ei]
			tOut := pipeOutletTemp(net.Pipes[ei], junctionT[j], flow)
			incoming[to] = append(incoming[to], inflow{mdot: flow, tK: tOut})
			net.Pipes[ei].ResTFromK = junctionT[j]
			net.Pipes[ei].ResTToK = tOut
		}
	}

	for i := range net.Junctions {
		net.Junctions[i].ResTK = junctionT[i]
	}
	for i := range net.Consumers {
		c := &net.Consumers[i]
		c.ResTFromK = junctionT[c.From]
		c.ResTToK = junctionT[c.To]
	}
	for i := range net.PumpsP {
		pp := &net.PumpsP[i]
		pp.ResTFromK = junctionT[pp.ReturnJ]
		pp.ResTToK = pp.TFlowK
	}
	for i := range net.PumpsM {
		mp := &net.PumpsM[i]
		mp.ResTFromK = junctionT[mp.ReturnJ]
		mp.ResTToK = mp.TFlowK
	}
}

// pipeOutletTemp applies exponential cooling toward the external
// temperature over the pipe's length, driven by its U-value and the
// current mass flow.
func pipeOutletTemp(p network.Pipe, tInK, mdot float64) float64 {
	if mdot <= 1e-6 {
		return tInK
	}
	perimeter := math.Pi * p.InnerDiameterM
	area := perimeter * p.LengthKm * 1000
	k := p.UValueWPerM2K * area / (mdot * catalog.WaterCpJPerKgK)
	return p.TExtK + (tInK-p.TExtK)*math.Exp(-k)
}

func kahnOrder(n int, outEdges [][]int, edgeTo []int, indegree []int) ([]int, bool) {
	indeg := append([]int(nil), indegree...)
	queue := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if indeg[j] == 0 {
			queue = append(queue, j)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		order = append(order, j)
		for _, ei := range outEdges[j] {
			to := edgeTo[ei]
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	return order, len(order) == n
}

func relaxationOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
