package server

import (
	"math"

	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

// KindCounts are units per job kind.
type KindCounts map[domain.JobKind]int

func (k KindCounts) Total() int {
	sum := 0
	for _, n := range k {
		sum += n
	}
	return sum
}

type CapacityTotals struct {
	Max      float64 `json:"max"`
	Used     float64 `json:"used"`
	Reserved float64 `json:"reserved"`
	Free     float64 `json:"free"`
}

type ResourceTotals struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// Report bundles every aggregation query for the reporting side.
type Report struct {
	Session         string         `json:"session"`
	Workers         int            `json:"workers"`
	Targets         int            `json:"targets"`
	Phases          map[string]int `json:"phases"`
	Waiting         KindCounts     `json:"waiting"`
	Initiating      KindCounts     `json:"initiating"`
	Scheduled       KindCounts     `json:"scheduled"`
	ResistanceTiers map[int]int    `json:"resistanceTiers"`
	Capacity        CapacityTotals `json:"capacity"`
	Resource        ResourceTotals `json:"resource"`
	UsageAvg        float64        `json:"usageAvg"`
	Boost           bool           `json:"boost"`
}

// WaitingByKind counts the admitted units not started on any worker yet.
func (s *statefulScheduler) WaitingByKind() KindCounts {
	counts := KindCounts{}
	for _, t := range s.admission {
		counts[t.Kind] += t.Remaining()
	}
	return counts
}

// InitiatingByKind counts the units of admitted tickets already started.
func (s *statefulScheduler) InitiatingByKind() KindCounts {
	counts := KindCounts{}
	for _, t := range s.admission {
		if t.Progress() > 0 {
			counts[t.Kind] += t.Progress()
		}
	}
	return counts
}

// ScheduledByKind counts the units of fully committed tickets awaiting completion.
func (s *statefulScheduler) ScheduledByKind() KindCounts {
	counts := KindCounts{}
	for _, t := range s.dispatch {
		counts[t.Kind] += t.Requested
	}
	return counts
}

// ResistanceTiers counts targets per resistance tier.
func (s *statefulScheduler) ResistanceTiers() map[int]int {
	tiers := map[int]int{}
	for _, q := range s.queues {
		tiers[q.Model().Attributes().ResistanceTier]++
	}
	return tiers
}

// Phases counts job queues per phase.
func (s *statefulScheduler) Phases() map[string]int {
	phases := map[string]int{}
	for _, q := range s.queues {
		phases[q.Phase().String()]++
	}
	return phases
}

func (s *statefulScheduler) CapacityTotals() CapacityTotals {
	c := s.pool.capacity()
	reserved := s.pool.reservedCapacity()
	return CapacityTotals{
		Max:      c.Max,
		Used:     c.Used,
		Reserved: reserved,
		Free:     math.Max(0, c.Max-c.Used-reserved),
	}
}

func (s *statefulScheduler) ResourceTotals() ResourceTotals {
	totals := ResourceTotals{}
	for _, q := range s.queues {
		current, max := q.Model().Resource()
		totals.Current += current
		totals.Max += max
	}
	return totals
}

func (s *statefulScheduler) Report() Report {
	return Report{
		Session:         s.session,
		Workers:         len(s.pool.workers),
		Targets:         len(s.queues),
		Phases:          s.Phases(),
		Waiting:         s.WaitingByKind(),
		Initiating:      s.InitiatingByKind(),
		Scheduled:       s.ScheduledByKind(),
		ResistanceTiers: s.ResistanceTiers(),
		Capacity:        s.CapacityTotals(),
		Resource:        s.ResourceTotals(),
		UsageAvg:        s.usage.Avg(),
		Boost:           s.CanBoost(),
	}
}
