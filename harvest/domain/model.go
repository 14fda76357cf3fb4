package domain

//go:generate mockgen -source=model.go -package=domain -destination=model_mock.go

import (
	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
)

// Units are the job counts a target needs for one phase.
type Units struct {
	Harvest   int
	Replenish int
	Suppress  int
}

// IsZero reports whether no job of any kind is needed.
func (u Units) IsZero() bool {
	return u.Harvest <= 0 && u.Replenish <= 0 && u.Suppress <= 0
}

// Of returns the count for kind, Backfill is never part of a phase.
func (u Units) Of(kind JobKind) int {
	switch kind {
	case Harvest:
		return u.Harvest
	case Replenish:
		return u.Replenish
	case Suppress:
		return u.Suppress
	default:
		return 0
	}
}

// TargetAttributes are the static properties of a target.
type TargetAttributes struct {
	MaxCapacity    float64
	ResistanceTier int
	ResourceTier   int
	Category       string
}

// ResourceModel answers how much work a target needs. The formulas behind it
// belong to the caller; the scheduler only consumes the counts.
type ResourceModel interface {
	// Units needed to restore the target toward its maximum, plus the suppress
	// units cancelling the resistance that restoration adds and any existing
	// resistance debt. Harvest is always zero.
	UnitsToReplenish(harvestFraction float64) Units

	// Units needed to take harvestFraction of the resource, plus the replenish
	// units to restore what that costs and the suppress units cancelling the
	// resistance both add.
	UnitsToHarvest(harvestFraction float64) Units

	Attributes() TargetAttributes

	// Current and maximum resource held by the target.
	Resource() (current, max float64)
}

// ModelFactory builds the resource model of a target.
type ModelFactory func(target cluster.Node) ResourceModel
