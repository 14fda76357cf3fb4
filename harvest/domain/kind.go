package domain

import (
	"fmt"
)

// JobKind is what a ticket's job does to its target.
type JobKind int

const (
	// Take a fraction of the target's resource.
	Harvest JobKind = iota
	// Restore the target's resource toward its maximum.
	Replenish
	// Cancel the target's resistance.
	Suppress
	// Low priority filler sized to idle pool capacity.
	Backfill
)

// AllKinds in admission priority order.
var AllKinds = []JobKind{Harvest, Replenish, Suppress, Backfill}

func (k JobKind) String() string {
	switch k {
	case Harvest:
		return "harvest"
	case Replenish:
		return "replenish"
	case Suppress:
		return "suppress"
	case Backfill:
		return "backfill"
	default:
		return fmt.Sprintf("JobKind(%d)", int(k))
	}
}

// Program is the name of the job program a worker runs for this kind.
func (k JobKind) Program() string {
	return k.String() + ".js"
}

// Priority orders admission; a lower value is admitted first.
type Priority int

// DefaultPriority derives a ticket's priority from its kind:
// Harvest before Replenish before Suppress before Backfill.
func (k JobKind) DefaultPriority() Priority {
	switch k {
	case Harvest:
		return 1
	case Replenish:
		return 2
	case Suppress:
		return 3
	default:
		return 4
	}
}

// ParseJobKind is the inverse of String.
func ParseJobKind(s string) (JobKind, error) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown job kind %q", s)
}

// Costs is the capacity one unit of each kind occupies on a worker.
type Costs map[JobKind]float64

// DefaultCosts mirror the footprint of the job programs.
var DefaultCosts = Costs{
	Harvest:   1.70,
	Replenish: 1.75,
	Suppress:  1.75,
	Backfill:  4.00,
}

// Of returns the unit cost of k, falling back to DefaultCosts.
func (c Costs) Of(k JobKind) float64 {
	if cost, ok := c[k]; ok && cost > 0 {
		return cost
	}
	return DefaultCosts[k]
}

func (k JobKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *JobKind) UnmarshalText(b []byte) error {
	parsed, err := ParseJobKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
