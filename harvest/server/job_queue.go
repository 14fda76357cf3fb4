package server

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

// JobQueue turns what one target needs into tickets. It replenishes the
// target first (Initiating) and then harvests it (Running), re-checking
// whether replenishment is needed before every harvest batch.
//
// A queue emits one batch at a time: nothing new is emitted while any
// ticket of the previous batch is not Done.
type JobQueue struct {
	target cluster.Node
	model  domain.ResourceModel
	seq    *domain.Sequence
	costs  domain.Costs

	harvestFraction float64
	boostFraction   float64

	phase   domain.TicketStatus
	tickets []*domain.Ticket
}

func NewJobQueue(target cluster.Node, model domain.ResourceModel, seq *domain.Sequence, costs domain.Costs,
	harvestFraction, boostFraction float64) *JobQueue {
	return &JobQueue{
		target:          target,
		model:           model,
		seq:             seq,
		costs:           costs,
		harvestFraction: harvestFraction,
		boostFraction:   boostFraction,
		phase:           domain.Created,
	}
}

func (q *JobQueue) Target() cluster.Node        { return q.target }
func (q *JobQueue) Model() domain.ResourceModel { return q.model }

// Phase is Created before the first batch, then Initiating or Running.
func (q *JobQueue) Phase() domain.TicketStatus { return q.phase }

func (q *JobQueue) IsRunning() bool { return q.phase == domain.Running }

// Tickets of the current batch.
func (q *JobQueue) Tickets() []*domain.Ticket { return q.tickets }

// IsFull reports whether the current batch still has unresolved tickets.
func (q *JobQueue) IsFull() bool {
	for _, t := range q.tickets {
		if !t.IsDone() {
			return true
		}
	}
	return false
}

// RamUsage is the capacity the unresolved tickets need.
func (q *JobQueue) RamUsage() float64 {
	total := 0.0
	for _, t := range q.tickets {
		if !t.IsDone() {
			total += float64(t.Requested) * q.costs.Of(t.Kind)
		}
	}
	return total
}

// Queue advances the phase and emits the next batch, returning the number of tickets emitted.
// boost takes the boost fraction instead of the harvest fraction when one is configured.
func (q *JobQueue) Queue(boost bool) int {
	if q.IsFull() {
		return 0
	}
	q.tickets = nil

	fraction := q.harvestFraction
	if boost && q.boostFraction > 0 {
		fraction = q.boostFraction
	}

	var units domain.Units
	switch q.phase {
	case domain.Created:
		q.setPhase(domain.Initiating)
		units = q.model.UnitsToReplenish(fraction)
		if units.Replenish <= 0 && units.Suppress <= 0 {
			q.setPhase(domain.Running)
			return 0
		}
	default:
		// Initiating with its batch resolved is upgraded once, Running stays Running
		// unless the target needs replenishing again.
		units = q.model.UnitsToReplenish(fraction)
		if units.Replenish > 0 || units.Suppress > 0 {
			q.setPhase(domain.Initiating)
		} else {
			q.setPhase(domain.Running)
			units = q.model.UnitsToHarvest(fraction)
		}
	}

	for _, kind := range []domain.JobKind{domain.Harvest, domain.Replenish, domain.Suppress} {
		if n := units.Of(kind); n > 0 {
			q.tickets = append(q.tickets, domain.NewTicket(q.seq, q.target.Id(), kind, n))
		}
	}
	return len(q.tickets)
}

// QueueBackfill emits a Backfill ticket filling free capacity, only while
// Running and not full. It returns the capacity the ticket claims.
func (q *JobQueue) QueueBackfill(free float64) float64 {
	if !q.IsRunning() || q.IsFull() {
		return 0
	}
	cost := q.costs.Of(domain.Backfill)
	units := int(math.Floor(free / cost))
	if units < 1 {
		return 0
	}
	q.tickets = []*domain.Ticket{domain.NewTicket(q.seq, q.target.Id(), domain.Backfill, units)}
	return float64(units) * cost
}

// TakeNew hands over the tickets not yet seen by the scheduler, marking them Initiating.
func (q *JobQueue) TakeNew() []*domain.Ticket {
	var taken []*domain.Ticket
	for _, t := range q.tickets {
		if t.IsNew() {
			t.SetStatus(domain.Initiating)
			taken = append(taken, t)
		}
	}
	return taken
}

func (q *JobQueue) setPhase(p domain.TicketStatus) {
	if q.phase != p {
		log.WithFields(
			log.Fields{
				"target": q.target.Id(),
				"from":   q.phase,
				"to":     p,
			}).Debug("Job queue phase change")
	}
	q.phase = p
}
