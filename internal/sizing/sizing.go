// Package sizing implements design-time pipe sizing: flow-direction
// correction and standard-type diameter selection, grounded in
// utilities.py's correct_flow_directions / init_diameter_types /
// optimize_diameter_types.
package sizing

import (
	"math"

	"netsim/internal/catalog"
	"netsim/internal/hydraulics"
	"netsim/internal/network"
)

// CorrectFlowDirections solves once, then swaps the from/to junctions of
// any pipe whose mean velocity came out negative, and re-solves. Done once.
func CorrectFlowDirections(solver *hydraulics.Solver, net *network.Network) error {
	if err := solver.Solve(net); err != nil {
		return err
	}
	changed := false
	for i := range net.Pipes {
		p := &net.Pipes[i]
		if p.ResVMeanMPerS < 0 {
			p.From, p.To = p.To, p.From
			changed = true
		}
	}
	if changed {
		return solver.Solve(net)
	}
	return nil
}

// InitDiameterTypes performs the continuity-based initial sizing pass: for
// each pipe, d_required = d * sqrt(v / v_max), then snaps to the nearest
// standard type of the given material.
func InitDiameterTypes(solver *hydraulics.Solver, net *network.Network, cat *catalog.Catalog, vMax float64, material string, roughnessMM float64) error {
	if err := solver.Solve(net); err != nil {
		return err
	}
	ladder := cat.FilterByMaterial(material)
	if len(ladder) == 0 {
		return nil
	}
	for i := range net.Pipes {
		p := &net.Pipes[i]
		v := math.Abs(p.ResVMeanMPerS)
		if v <= 0 || p.InnerDiameterM <= 0 {
			continue
		}
		dRequired := p.InnerDiameterM * math.Sqrt(v/vMax)
		chosen := catalog.ClosestTo(ladder, dRequired)
		p.StdType = chosen.Name
		p.InnerDiameterM = chosen.InnerDiameterM
		p.UValueWPerM2K = chosen.UValueWPerM2K
		p.RoughnessMM = roughnessMM
	}
	return solver.Solve(net)
}

// OptimizeDiameterTypes refines diameters with a discrete-ladder pass:
// pipes above v_max move one rung up; pipes comfortably below v_max try one
// rung down and keep the change only if the resulting velocity still
// satisfies v_max, else revert. Repeats until a whole pass makes no change.
func OptimizeDiameterTypes(solver *hydraulics.Solver, net *network.Network, cat *catalog.Catalog, vMax float64, material string, roughnessMM float64) error {
	ladder := cat.FilterByMaterial(material)
	if len(ladder) == 0 {
		return nil
	}
	for i := range net.Pipes {
		net.Pipes[i].Optimised = false
	}

	for {
		if err := solver.Solve(net); err != nil {
			return err
		}
		anyChange := false
		for i := range net.Pipes {
			p := &net.Pipes[i]
			idx := ladderIndex(ladder, p.StdType)
			v := math.Abs(p.ResVMeanMPerS)

			if p.Optimised && v <= vMax {
				continue
			}
			if v > vMax && idx >= 0 && idx < len(ladder)-1 {
				applyType(p, ladder[idx+1], roughnessMM)
				p.Optimised = false
				anyChange = true
				continue
			}
			if v <= vMax && idx > 0 {
				prevType := ladder[idx]
				applyType(p, ladder[idx-1], roughnessMM)
				if err := solver.Solve(net); err != nil {
					return err
				}
				if math.Abs(p.ResVMeanMPerS) <= vMax {
					p.Optimised = false
					anyChange = true
				} else {
					applyType(p, prevType, roughnessMM)
					p.Optimised = true
				}
				continue
			}
			p.Optimised = true
		}
		if !anyChange {
			break
		}
	}
	return solver.Solve(net)
}

func applyType(p *network.Pipe, t catalog.PipeType, roughnessMM float64) {
	p.StdType = t.Name
	p.InnerDiameterM = t.InnerDiameterM
	p.UValueWPerM2K = t.UValueWPerM2K
	p.RoughnessMM = roughnessMM
}

func ladderIndex(ladder []catalog.PipeType, name string) int {
	for i, t := range ladder {
		if t.Name == name {
			return i
		}
	}
	return -1
}
