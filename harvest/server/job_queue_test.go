package server

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

var testCosts = domain.Costs{domain.Harvest: 1, domain.Replenish: 1, domain.Suppress: 1, domain.Backfill: 2}

func newTestQueue(model domain.ResourceModel) *JobQueue {
	return NewJobQueue(cluster.NewIdNode("t1"), model, &domain.Sequence{}, testCosts, 0.1, 0.25)
}

func resolve(tickets []*domain.Ticket) {
	for _, t := range tickets {
		t.SetStatus(domain.Done)
	}
}

func kindsOf(tickets []*domain.Ticket) []domain.JobKind {
	kinds := []domain.JobKind{}
	for _, t := range tickets {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}

func TestJobQueuePhases(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := domain.NewMockResourceModel(ctrl)
	q := newTestQueue(m)
	assert.Equal(t, domain.Created, q.Phase())

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{Replenish: 4, Suppress: 1})
	assert.Equal(t, 2, q.Queue(false))
	assert.Equal(t, domain.Initiating, q.Phase())
	assert.True(t, q.IsFull())
	assert.Equal(t, 5.0, q.RamUsage())

	// Unresolved batch, no model calls.
	assert.Equal(t, 0, q.Queue(false))

	taken := q.TakeNew()
	assert.Len(t, taken, 2)
	for _, tk := range taken {
		assert.True(t, tk.IsInitiating())
	}
	assert.Empty(t, q.TakeNew())

	resolve(taken)
	assert.False(t, q.IsFull())
	assert.Equal(t, 0.0, q.RamUsage())

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{})
	m.EXPECT().UnitsToHarvest(0.1).Return(domain.Units{Harvest: 10, Replenish: 2, Suppress: 1})
	assert.Equal(t, 3, q.Queue(false))
	assert.Equal(t, domain.Running, q.Phase())
	assert.Equal(t, []domain.JobKind{domain.Harvest, domain.Replenish, domain.Suppress}, kindsOf(q.Tickets()))

	resolve(q.TakeNew())
	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{Replenish: 3})
	assert.Equal(t, 1, q.Queue(false))
	assert.Equal(t, domain.Initiating, q.Phase(), "a running queue goes back to replenishing when needed")
}

func TestJobQueueNothingToReplenish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := domain.NewMockResourceModel(ctrl)
	q := newTestQueue(m)

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{})
	assert.Equal(t, 0, q.Queue(false))
	assert.Equal(t, domain.Running, q.Phase())
	assert.False(t, q.IsFull())

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{})
	m.EXPECT().UnitsToHarvest(0.1).Return(domain.Units{Harvest: 7})
	assert.Equal(t, 1, q.Queue(false))
}

func TestJobQueueResistanceDebtOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := domain.NewMockResourceModel(ctrl)
	q := newTestQueue(m)

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{Suppress: 2})
	assert.Equal(t, 1, q.Queue(false))
	assert.Equal(t, domain.Initiating, q.Phase())
	assert.Equal(t, []domain.JobKind{domain.Suppress}, kindsOf(q.Tickets()))
}

func TestJobQueueBoostFraction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := domain.NewMockResourceModel(ctrl)
	q := newTestQueue(m)

	m.EXPECT().UnitsToReplenish(0.25).Return(domain.Units{})
	q.Queue(true)
	m.EXPECT().UnitsToReplenish(0.25).Return(domain.Units{})
	m.EXPECT().UnitsToHarvest(0.25).Return(domain.Units{Harvest: 25})
	assert.Equal(t, 1, q.Queue(true))

	noBoost := NewJobQueue(cluster.NewIdNode("t2"), m, &domain.Sequence{}, testCosts, 0.1, 0)
	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{Replenish: 1})
	assert.Equal(t, 1, noBoost.Queue(true), "without a boost fraction boosting keeps the harvest fraction")
}

func TestJobQueueBackfill(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := domain.NewMockResourceModel(ctrl)
	q := newTestQueue(m)

	assert.Equal(t, 0.0, q.QueueBackfill(100), "only running queues backfill")

	m.EXPECT().UnitsToReplenish(0.1).Return(domain.Units{})
	q.Queue(false)
	assert.Equal(t, 0.0, q.QueueBackfill(1.5), "not enough for one unit")
	assert.False(t, q.IsFull())

	assert.Equal(t, 8.0, q.QueueBackfill(9))
	assert.Equal(t, []domain.JobKind{domain.Backfill}, kindsOf(q.Tickets()))
	assert.Equal(t, 4, q.Tickets()[0].Requested)
	assert.Equal(t, domain.Priority(4), q.Tickets()[0].Priority)
	assert.True(t, q.IsFull())
	assert.Equal(t, 8.0, q.RamUsage())

	assert.Equal(t, 0.0, q.QueueBackfill(9), "a full queue gets no more backfill")
	assert.Equal(t, 0, q.Queue(false))
}
