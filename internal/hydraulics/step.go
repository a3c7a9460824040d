package hydraulics

import (
	"log"

	"netsim/internal/network"
	"netsim/internal/simerrors"
)

// StepResult summarises the outcome of one outer-loop time step.
type StepResult struct {
	Converged       bool
	OuterIterations int
	Failed          bool
	FailureErr      error
}

// RunStep executes the begin/repeat/until controller loop for one time
// step: every controller is reset via OnTimeStep, then the inner solver and
// controller corrections alternate until every controller reports
// converged or maxOuterIter is reached.
//
// If the inner solver itself fails to converge, the step is reported
// failed per the propagation policy; the caller is responsible for
// freezing that row to the previous step's values.
func RunStep(solver *Solver, net *network.Network, controllers []Controller, t int, maxOuterIter int) StepResult {
	if maxOuterIter <= 0 {
		maxOuterIter = MaxOuterIter
	}
	state := &State{Net: net, T: t}

	for _, c := range controllers {
		c.OnTimeStep(state)
	}

	outer := 0
	for {
		if err := solver.Solve(net); err != nil {
			return StepResult{Failed: true, FailureErr: err, OuterIterations: outer}
		}

		allConverged := true
		for _, c := range controllers {
			if !c.IsConverged(state) {
				c.ControlStep(state)
				allConverged = false
			}
		}
		outer++
		if allConverged {
			return StepResult{Converged: true, OuterIterations: outer}
		}
		if outer >= maxOuterIter {
			log.Printf("hydraulics: step %d hit max_outer_iter=%d without full convergence", t, maxOuterIter)
			return StepResult{
				Converged:       false,
				OuterIterations: outer,
				Failed:          true,
				FailureErr:      simerrors.New(simerrors.ControllerNonConvergence, "outer controller loop did not converge"),
			}
		}
	}
}
