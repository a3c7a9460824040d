// Package storage implements the seasonal/stratified thermal storage
// element: N horizontal layers of equal volume, hot at the top, cold at the
// bottom, coupled to the dispatcher's net heat inflow each hour. Adapted
// from the accumulator/state idiom used for the home battery (config +
// mutable state + running stats), generalised from a single state-of-charge
// scalar to a per-layer temperature stack.
package storage

import "math"

// Config holds the fixed geometric and thermal parameters of the storage.
type Config struct {
	Layers          int
	VolumePerLayerM3 float64
	CpKJPerKgK      float64
	RhoKgPerM3      float64

	UValueWPerM2K  float64 // wall/floor/roof, applied uniformly per layer
	AreaPerLayerM2 float64
	AmbientTempC   float64

	ConductivityWPerMK float64 // lambda, inter-layer conduction
	CrossAreaM2        float64
	LayerThicknessM    float64 // delta-x between layer centres

	TMinC, TMaxC float64
}

// DefaultConfig returns reasonable defaults for a buffer of the given total
// volume split into the given number of layers (at least one).
func DefaultConfig(totalVolumeM3 float64, layers int) Config {
	if layers < 1 {
		layers = 1
	}
	return Config{
		Layers: layers, VolumePerLayerM3: totalVolumeM3 / float64(layers),
		CpKJPerKgK: 4.18, RhoKgPerM3: 980,
		UValueWPerM2K: 0.3, AreaPerLayerM2: 10, AmbientTempC: 10,
		ConductivityWPerMK: 0.6, CrossAreaM2: 10, LayerThicknessM: 1,
		TMinC: 5, TMaxC: 98,
	}
}

// StratifiedStorage is one seasonal/buffer thermal storage instance.
type StratifiedStorage struct {
	Cfg Config

	LayerTempC []float64

	// running stats, mirroring the battery accumulator's throughput/stats idiom
	TotalQInKWh     float64
	TotalQOutKWh    float64
	ExcessHeatCount int
	UnmetCount      int

	hourlyLossKW     []float64
	hourlyNetFlowKW  []float64 // + discharge, - charge
	hourlyEfficiency []float64
}

// New returns a storage with every layer initialised to initialTempC.
func New(cfg Config, initialTempC float64) *StratifiedStorage {
	s := &StratifiedStorage{Cfg: cfg}
	s.LayerTempC = make([]float64, cfg.Layers)
	for i := range s.LayerTempC {
		s.LayerTempC[i] = initialTempC
	}
	return s
}

// InitOperation allocates per-hour result arrays.
func (s *StratifiedStorage) InitOperation(hours int) {
	s.hourlyLossKW = make([]float64, hours)
	s.hourlyNetFlowKW = make([]float64, hours)
	s.hourlyEfficiency = make([]float64, hours)
}

func (s *StratifiedStorage) layerMassKg(i int) float64 {
	return s.Cfg.VolumePerLayerM3 * s.Cfg.RhoKgPerM3
}

// UpperTempC and LowerTempC expose the hot-top/cold-bottom boundary
// temperatures a dispatch Strategy reads to decide on/off state.
func (s *StratifiedStorage) UpperTempC() float64 { return s.LayerTempC[0] }
func (s *StratifiedStorage) LowerTempC() float64 {
	return s.LayerTempC[len(s.LayerTempC)-1]
}

// StoredEnergyKWh returns total stored heat relative to T_return, per layer
// summed: V_i * rho * cp * (T_i - T_return) / 3.6e6.
func (s *StratifiedStorage) StoredEnergyKWh(tReturnC float64) float64 {
	var total float64
	for _, t := range s.LayerTempC {
		massKg := s.layerMassKg(0)
		total += massKg * s.Cfg.CpKJPerKgK * 1000 * (t - tReturnC) / 3.6e6
	}
	return total
}

func (s *StratifiedStorage) clip(t float64) (float64, bool) {
	if t < s.Cfg.TMinC {
		return s.Cfg.TMinC, true
	}
	if t > s.Cfg.TMaxC {
		return s.Cfg.TMaxC, true
	}
	return t, false
}

// Step advances the storage by one hour given net heat inflow qInKW at
// tFlowInC and outflow qOutKW returning at tReturnC, following the sequence
// of standing losses, inter-layer conduction, charge mixing, discharge
// mixing, and totals bookkeeping.
func (s *StratifiedStorage) Step(t int, qInKW, qOutKW, tFlowInC, tReturnC float64) {
	n := s.Cfg.Layers
	massKg := s.layerMassKg(0)
	cpJPerKgK := s.Cfg.CpKJPerKgK * 1000

	// 1. standing losses
	var totalLossKW float64
	for i := 0; i < n; i++ {
		qLossW := s.Cfg.UValueWPerM2K * s.Cfg.AreaPerLayerM2 * (s.LayerTempC[i] - s.Cfg.AmbientTempC)
		totalLossKW += qLossW / 1000
		dT := qLossW * 3600 / (massKg * cpJPerKgK)
		s.LayerTempC[i] -= dT
	}

	// 2. inter-layer conduction, symmetric
	if n > 1 {
		transfers := make([]float64, n-1)
		for i := 0; i < n-1; i++ {
			pW := s.Cfg.ConductivityWPerMK * s.Cfg.CrossAreaM2 * (s.LayerTempC[i] - s.LayerTempC[i+1]) / s.Cfg.LayerThicknessM
			transfers[i] = pW
		}
		for i, pW := range transfers {
			dT := pW * 3600 / (massKg * cpJPerKgK)
			s.LayerTempC[i] -= dT
			s.LayerTempC[i+1] += dT
		}
	}

	// 3. charge flow: top-down enthalpy mixing
	if qInKW > 0 {
		denom := cpJPerKgK * (tFlowInC - s.LayerTempC[n-1])
		mIn := 0.0
		if denom != 0 {
			mIn = qInKW * 1000 / denom
		}
		inletC := tFlowInC
		for i := 0; i < n; i++ {
			layerMassCp := massKg * cpJPerKgK
			flowMassCp := mIn * cpJPerKgK
			denom := flowMassCp + layerMassCp
			mixed := s.LayerTempC[i]
			if denom != 0 {
				mixed = (flowMassCp*inletC + layerMassCp*s.LayerTempC[i]) / denom
			}
			outlet := s.LayerTempC[i]
			s.LayerTempC[i] = mixed
			inletC = outlet
		}
	}

	// 4. discharge flow: bottom-up enthalpy mixing
	if qOutKW > 0 {
		denom := cpJPerKgK * (s.LayerTempC[0] - tReturnC)
		mOut := 0.0
		if denom != 0 {
			mOut = qOutKW * 1000 / denom
		}
		inletC := tReturnC
		for i := n - 1; i >= 0; i-- {
			layerMassCp := massKg * cpJPerKgK
			flowMassCp := mOut * cpJPerKgK
			denom := flowMassCp + layerMassCp
			mixed := s.LayerTempC[i]
			if denom != 0 {
				mixed = (flowMassCp*inletC + layerMassCp*s.LayerTempC[i]) / denom
			}
			outlet := s.LayerTempC[i]
			s.LayerTempC[i] = mixed
			inletC = outlet
		}
	}

	// clip temperatures, counting violations without aborting
	for i := range s.LayerTempC {
		clipped, violated := s.clip(s.LayerTempC[i])
		s.LayerTempC[i] = clipped
		if violated {
			if s.LayerTempC[i] == s.Cfg.TMaxC {
				s.ExcessHeatCount++
			} else {
				s.UnmetCount++
			}
		}
	}

	s.TotalQInKWh += qInKW
	s.TotalQOutKWh += qOutKW
	netFlowKW := qOutKW - qInKW

	if t >= 0 && t < len(s.hourlyLossKW) {
		s.hourlyLossKW[t] = totalLossKW
		s.hourlyNetFlowKW[t] = netFlowKW
		if qInKW > 0 {
			s.hourlyEfficiency[t] = qOutKW / qInKW
		}
	}
}

// Efficiency returns the year-end ratio sum(Q_out)/sum(Q_in).
func (s *StratifiedStorage) Efficiency() float64 {
	if s.TotalQInKWh <= 0 {
		return 0
	}
	return s.TotalQOutKWh / s.TotalQInKWh
}

// AverageOutletTempC returns the current top-layer (discharge-side) outlet
// temperature, refreshed after every Step call.
func (s *StratifiedStorage) AverageOutletTempC() float64 {
	if len(s.LayerTempC) == 0 {
		return math.NaN()
	}
	return s.LayerTempC[0]
}
