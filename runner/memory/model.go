package memory

import (
	"math"
	"sync"

	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

// ModelParams are the per-unit effects of each job kind on a simulated target.
type ModelParams struct {
	// Fraction of the current resource one harvest unit takes.
	HarvestPerUnit float64
	// Fraction of the maximum resource one replenish unit restores.
	ReplenishPerUnit float64
	// Resistance one suppress unit removes.
	SuppressPerUnit float64
	// Resistance added by one harvest unit.
	HarvestResistance float64
	// Resistance added by one replenish unit.
	ReplenishResistance float64
}

var DefaultModelParams = ModelParams{
	HarvestPerUnit:      0.002,
	ReplenishPerUnit:    0.01,
	SuppressPerUnit:     0.05,
	HarvestResistance:   0.002,
	ReplenishResistance: 0.004,
}

// Model is a linear domain.ResourceModel whose state changes as jobs complete.
type Model struct {
	attrs  domain.TargetAttributes
	params ModelParams

	current, max              float64
	resistance, minResistance float64
	mu                        sync.Mutex
}

// NewModel starts the target at its maximum resource and minimum resistance.
func NewModel(attrs domain.TargetAttributes, max, minResistance float64, params ModelParams) *Model {
	return &Model{
		attrs:         attrs,
		params:        params,
		current:       max,
		max:           max,
		resistance:    minResistance,
		minResistance: minResistance,
	}
}

func (m *Model) Attributes() domain.TargetAttributes {
	return m.attrs
}

func (m *Model) Resource() (current, max float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.max
}

func (m *Model) Resistance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resistance
}

func (m *Model) SetResource(current float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = math.Max(0, math.Min(current, m.max))
}

func (m *Model) UnitsToReplenish(harvestFraction float64) domain.Units {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.params
	replenish := 0
	if m.current < m.max && m.max > 0 {
		replenish = ceilUnits((m.max - m.current) / (m.max * p.ReplenishPerUnit))
	}
	debt := m.resistance - m.minResistance
	suppress := ceilUnits((debt + float64(replenish)*p.ReplenishResistance) / p.SuppressPerUnit)
	return domain.Units{Replenish: replenish, Suppress: suppress}
}

func (m *Model) UnitsToHarvest(harvestFraction float64) domain.Units {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.params
	f := math.Max(0, math.Min(1, harvestFraction))
	if f == 0 || m.current <= 0 || m.max <= 0 {
		return domain.Units{}
	}
	harvest := ceilUnits(f / p.HarvestPerUnit)
	taken := m.current * math.Min(1, float64(harvest)*p.HarvestPerUnit)
	replenish := ceilUnits(taken / (m.max * p.ReplenishPerUnit))
	suppress := ceilUnits((float64(harvest)*p.HarvestResistance + float64(replenish)*p.ReplenishResistance) / p.SuppressPerUnit)
	return domain.Units{Harvest: harvest, Replenish: replenish, Suppress: suppress}
}

// Apply changes the target as a completed job of units of kind would.
func (m *Model) Apply(kind domain.JobKind, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.params
	n := float64(units)
	switch kind {
	case domain.Harvest:
		m.current -= m.current * math.Min(1, n*p.HarvestPerUnit)
		m.resistance += n * p.HarvestResistance
	case domain.Replenish:
		m.current = math.Min(m.max, m.current+m.max*n*p.ReplenishPerUnit)
		m.resistance += n * p.ReplenishResistance
	case domain.Suppress:
		m.resistance = math.Max(m.minResistance, m.resistance-n*p.SuppressPerUnit)
	}
}

func ceilUnits(x float64) int {
	if x <= 1e-9 {
		return 0
	}
	return int(math.Ceil(x - 1e-9))
}

var _ domain.ResourceModel = (*Model)(nil)
