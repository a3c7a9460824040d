package hydraulics

import (
	"math"

	"netsim/internal/network"
)

// MaxOuterIter is the outer controller-loop safety net; reaching it is a
// warning, not an error, per design.
const MaxOuterIter = 100

// State is the view of the network a controller inspects and mutates. It
// never outlives the RunStep call it was built for.
type State struct {
	Net *network.Network
	T   int
}

// Controller is the capability set every outer-loop participant must
// implement: reset at the start of a time step, propose a setpoint change,
// and report whether it is satisfied.
type Controller interface {
	OnTimeStep(s *State)
	ControlStep(s *State)
	IsConverged(s *State) bool
}

// ProfileSource looks up the value of a time-indexed data source at index t.
type ProfileSource interface {
	ValueAt(t int) (float64, bool)
}

// ArrayProfile is the common ProfileSource backed by a plain slice.
type ArrayProfile []float64

func (a ArrayProfile) ValueAt(t int) (float64, bool) {
	if t < 0 || t >= len(a) {
		return 0, false
	}
	return a[t], true
}

// ConstantValue is a ProfileSource that never varies with t.
type ConstantValue float64

func (c ConstantValue) ValueAt(int) (float64, bool) { return float64(c), true }

// BadPointPressureLiftController implements "Differenzdruckregelung im
// Schlechtpunkt": it tunes the main pump's p_flow/p_lift so the
// hydraulically worst active consumer sees the target pressure
// differential.
type BadPointPressureLiftController struct {
	PumpIdx          int
	TargetDPMinBar   float64
	Tolerance        float64
	ProportionalGain float64
	MinPLift         float64
	MinPFlow         float64

	badPointIdx int
	standby     bool
}

// NewBadPointPressureLiftController returns a controller configured with
// the defaults from the original design: target 1.0 bar, tolerance 0.2 bar,
// gain 0.2, standby p_lift 1.5 bar / p_flow 3.5 bar.
func NewBadPointPressureLiftController(pumpIdx int) *BadPointPressureLiftController {
	return &BadPointPressureLiftController{
		PumpIdx: pumpIdx, TargetDPMinBar: 1.0, Tolerance: 0.2,
		ProportionalGain: 0.2, MinPLift: 1.5, MinPFlow: 3.5,
	}
}

func (c *BadPointPressureLiftController) OnTimeStep(s *State) {
	c.badPointIdx = -1
	c.standby = false
}

// currentDP returns p_to - p_from (the consumer's available head) for the
// hydraulically worst active consumer, and whether any consumer is active.
func (c *BadPointPressureLiftController) currentDP(s *State) (float64, bool) {
	best := math.Inf(1)
	found := false
	for i, cons := range s.Net.Consumers {
		if cons.QextW <= 0 {
			continue
		}
		pFrom := s.Net.Junctions[cons.From].ResPBar
		pTo := s.Net.Junctions[cons.To].ResPBar
		dp := pTo - pFrom
		if dp < best {
			best = dp
			found = true
			c.badPointIdx = i
		}
	}
	return best, found
}

func (c *BadPointPressureLiftController) ControlStep(s *State) {
	dp, found := c.currentDP(s)
	pump := &s.Net.PumpsP[c.PumpIdx]
	if !found {
		c.standby = true
		pump.PLiftBar = c.MinPLift
		pump.PFlowBar = c.MinPFlow
		return
	}
	c.standby = false
	delta := c.ProportionalGain * (c.TargetDPMinBar - dp)
	pump.PLiftBar += delta
	pump.PFlowBar += delta
}

func (c *BadPointPressureLiftController) IsConverged(s *State) bool {
	dp, found := c.currentDP(s)
	if !found {
		// standby: converged once the standby setpoints are in place
		pump := s.Net.PumpsP[c.PumpIdx]
		return pump.PLiftBar == c.MinPLift && pump.PFlowBar == c.MinPFlow
	}
	return math.Abs(dp-c.TargetDPMinBar) < c.Tolerance
}

// MinimumSupplyTemperatureController raises a single consumer's target
// return temperature in fixed steps until the observed supply temperature
// at that consumer meets its minimum, damping oscillation with a weighted
// average of its last two observations.
type MinimumSupplyTemperatureController struct {
	ConsumerIdx          int
	MinSupplyTempSource  ProfileSource // optional time-varying minimum, degC
	StaticMinSupplyTempC float64
	StepC                float64
	Tolerance            float64
	MaxIterations        int

	originalTReturnK float64
	haveOriginal     bool
	minSupplyTempC   float64
	history          []float64 // observed supply temps, degC, most-recent last
	iteration        int
	forceConverged   bool
}

// NewMinimumSupplyTemperatureController returns a controller with the
// design defaults: step 1 degC, tolerance 2 degC, max_iterations 100.
func NewMinimumSupplyTemperatureController(consumerIdx int, minSupplyTempC float64) *MinimumSupplyTemperatureController {
	return &MinimumSupplyTemperatureController{
		ConsumerIdx: consumerIdx, StaticMinSupplyTempC: minSupplyTempC,
		StepC: 1.0, Tolerance: 2.0, MaxIterations: 100,
	}
}

// OnTimeStep resets the iteration counter, clears the observation history,
// restores the consumer's originally configured return temperature, and
// refreshes the live minimum from any attached time-series source.
func (c *MinimumSupplyTemperatureController) OnTimeStep(s *State) {
	c.iteration = 0
	c.history = nil
	c.forceConverged = false

	cons := &s.Net.Consumers[c.ConsumerIdx]
	if !c.haveOriginal {
		c.originalTReturnK = cons.TReturnK
		c.haveOriginal = true
	} else {
		cons.TReturnK = c.originalTReturnK
	}

	if c.MinSupplyTempSource != nil {
		if v, ok := c.MinSupplyTempSource.ValueAt(s.T); ok {
			c.minSupplyTempC = v
			return
		}
	}
	c.minSupplyTempC = c.StaticMinSupplyTempC
}

func (c *MinimumSupplyTemperatureController) weightedAverage() float64 {
	n := len(c.history)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.history[0]
	}
	// last two observations, weights 1, 2 (most recent weighted higher)
	a, b := c.history[n-2], c.history[n-1]
	return (1*a + 2*b) / 3
}

func (c *MinimumSupplyTemperatureController) observedSupplyC(s *State) float64 {
	cons := s.Net.Consumers[c.ConsumerIdx]
	return cons.ResTToK - 273.15
}

func (c *MinimumSupplyTemperatureController) ControlStep(s *State) {
	cons := &s.Net.Consumers[c.ConsumerIdx]
	if cons.QextW <= 0 {
		return
	}
	c.history = append(c.history, c.observedSupplyC(s))
	if len(c.history) > 2 {
		c.history = c.history[len(c.history)-2:]
	}
	tIn := c.weightedAverage()
	if tIn < c.minSupplyTempC {
		cons.TReturnK += c.StepC
	}
	c.iteration++
	if c.iteration >= c.MaxIterations {
		c.forceConverged = true
	}
}

func (c *MinimumSupplyTemperatureController) IsConverged(s *State) bool {
	cons := s.Net.Consumers[c.ConsumerIdx]
	if cons.QextW <= 0 {
		return true
	}
	if c.forceConverged {
		return true
	}
	if len(c.history) < 2 {
		return false
	}
	tIn := c.weightedAverage()
	if tIn < c.minSupplyTempC {
		return false
	}
	prev := c.history[len(c.history)-2]
	return math.Abs(tIn-prev) < c.Tolerance
}

// ForceConverged reports whether the last time step hit MaxIterations
// without satisfying its minimum-supply-temperature target.
func (c *MinimumSupplyTemperatureController) ForceConverged() bool { return c.forceConverged }

// Field identifies a scalar on a network element that a ConstantProfile
// controller may drive.
type Field int

const (
	FieldConsumerQextW Field = iota
	FieldConsumerTReturnK
	FieldPumpPTFlowK
	FieldPumpMMDotKgPerS
)

// ConstantProfileController writes its data source's value at index t onto
// a single named scalar field of a single element. It is always converged.
type ConstantProfileController struct {
	ElementIdx int
	Field      Field
	Source     ProfileSource
}

func (c *ConstantProfileController) OnTimeStep(s *State) {
	v, ok := c.Source.ValueAt(s.T)
	if !ok {
		return
	}
	switch c.Field {
	case FieldConsumerQextW:
		s.Net.Consumers[c.ElementIdx].QextW = v
	case FieldConsumerTReturnK:
		s.Net.Consumers[c.ElementIdx].TReturnK = v
	case FieldPumpPTFlowK:
		if c.ElementIdx < len(s.Net.PumpsP) {
			s.Net.PumpsP[c.ElementIdx].TFlowK = v
		}
	case FieldPumpMMDotKgPerS:
		if c.ElementIdx < len(s.Net.PumpsM) {
			s.Net.PumpsM[c.ElementIdx].MDotKgPerS = v
		}
	}
}

func (c *ConstantProfileController) ControlStep(s *State)      {}
func (c *ConstantProfileController) IsConverged(s *State) bool { return true }
