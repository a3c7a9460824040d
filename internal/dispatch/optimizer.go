package dispatch

import "math/rand"

// Weights is the objective's weighting vector; the three components should
// sum to 1.
type Weights struct {
	CostWGK           float64
	CO2               float64
	PrimaryEnergy     float64
}

// Objective evaluates f(x) = w_cost*WGK + w_co2*co2 + w_pe*pe for a given
// assignment of optimisation-variable values (by name). The caller supplies
// this after re-running CalculateMix/AggregateResults with the candidate
// values applied.
type Objective func(values map[string]float64) (feasible bool, wgk, co2, pe float64)

// Optimizer performs a gradient-free bounded local search with N random
// restarts, an approximation of an SLSQP-style bounded local optimiser: each
// restart draws its starting point uniformly from the declared bounds, runs a shrinking-step
// coordinate (compass) search, and the best feasible result across all
// restarts wins.
type Optimizer struct {
	Params    []OptimizationParam
	Weights   Weights
	Eval      Objective
	Restarts  int // default 5
	Rand      *rand.Rand
	MaxSteps  int
	InitStep  float64 // fraction of each parameter's range
}

// NewOptimizer returns an optimiser configured with the design defaults:
// 5 restarts, 60 shrinking-step iterations, initial step 10% of range.
func NewOptimizer(params []OptimizationParam, w Weights, eval Objective) *Optimizer {
	return &Optimizer{
		Params: params, Weights: w, Eval: eval, Restarts: 5,
		Rand: rand.New(rand.NewSource(1)), MaxSteps: 60, InitStep: 0.1,
	}
}

// Result is the best point found across all restarts.
type Result struct {
	Values   map[string]float64
	Feasible bool
	Score    float64
	WGK, CO2, PE float64
}

func (o *Optimizer) objectiveValue(values map[string]float64) (bool, float64) {
	feasible, wgk, co2, pe := o.Eval(values)
	if !feasible {
		return false, 0
	}
	return true, o.Weights.CostWGK*wgk + o.Weights.CO2*co2 + o.Weights.PrimaryEnergy*pe
}

// Optimize runs N random restarts of a compass (coordinate pattern) search
// and returns the best feasible point found.
func (o *Optimizer) Optimize() Result {
	var best Result
	haveBest := false

	for restart := 0; restart < o.Restarts; restart++ {
		x := make(map[string]float64, len(o.Params))
		step := make(map[string]float64, len(o.Params))
		for _, p := range o.Params {
			x[p.Name] = p.Min + o.Rand.Float64()*(p.Max-p.Min)
			step[p.Name] = o.InitStep * (p.Max - p.Min)
		}

		feasible, score := o.objectiveValue(x)
		if feasible && (!haveBest || score < best.Score) {
			best = o.snapshot(x, score)
			haveBest = true
		}

		for iter := 0; iter < o.MaxSteps; iter++ {
			improved := false
			for _, p := range o.Params {
				for _, sign := range []float64{1, -1} {
					candidate := cloneValues(x)
					v := x[p.Name] + sign*step[p.Name]
					if v < p.Min {
						v = p.Min
					}
					if v > p.Max {
						v = p.Max
					}
					candidate[p.Name] = v

					feasible, score := o.objectiveValue(candidate)
					if feasible && (!haveBest || score < best.Score) {
						x = candidate
						best = o.snapshot(x, score)
						haveBest = true
						improved = true
					}
				}
			}
			if !improved {
				for _, p := range o.Params {
					step[p.Name] /= 2
				}
			}
		}
	}

	return best
}

func (o *Optimizer) snapshot(x map[string]float64, score float64) Result {
	_, wgk, co2, pe := o.Eval(x)
	return Result{Values: cloneValues(x), Feasible: true, Score: score, WGK: wgk, CO2: co2, PE: pe}
}

func cloneValues(x map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(x))
	for k, v := range x {
		out[k] = v
	}
	return out
}
