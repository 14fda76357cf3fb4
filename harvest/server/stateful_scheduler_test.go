package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/common/stats"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
	"github.com/4rg0n/bitburner-sub000/runner/memory"
)

// objects needed to initialize a stateful scheduler
type schedulerDeps struct {
	workers       cluster.Fetcher
	targets       cluster.Fetcher
	rf            runner.Factory
	mf            domain.ModelFactory
	deployer      runner.Deployer
	config        SchedulerConfig
	statsRegistry stats.StatsRegistry
}

// returns scheduler deps backed by a simulated cluster, every target uses model
func getSimSchedDeps(sim *memory.Cluster, model func(cluster.Node) domain.ResourceModel) *schedulerDeps {
	mf := sim.Models()
	if model != nil {
		mf = model
	}
	return &schedulerDeps{
		workers:  sim.Workers(),
		targets:  sim.Targets(),
		rf:       sim.Factory(),
		mf:       mf,
		deployer: memory.NewDeployer(sim, stats.NilStatsReceiver()),
		config: SchedulerConfig{
			Costs:       testCosts,
			StopTimeout: time.Second,
		},
		statsRegistry: stats.NewFlatStatsRegistry(),
	}
}

func makeStatefulSchedulerDeps(t *testing.T, deps *schedulerDeps) *statefulScheduler {
	statsReceiver, _ := stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return deps.statsRegistry }, 0)
	s, err := NewStatefulScheduler(deps.workers, deps.targets, deps.rf, deps.mf, deps.deployer, deps.config, statsReceiver)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}
	return s
}

// an empty scheduler whose pool and queues tests fill by hand
func makeBareScheduler(t *testing.T, config SchedulerConfig) *statefulScheduler {
	if config.Costs == nil {
		config.Costs = testCosts
	}
	return makeStatefulSchedulerDeps(t, &schedulerDeps{
		workers:       cluster.NewMemoryFetcher(),
		targets:       cluster.NewMemoryFetcher(),
		config:        config,
		statsRegistry: stats.NewFlatStatsRegistry(),
	})
}

func fixedModel(ctrl *gomock.Controller, harvest domain.Units) *domain.MockResourceModel {
	m := domain.NewMockResourceModel(ctrl)
	m.EXPECT().Attributes().Return(domain.TargetAttributes{ResistanceTier: 2, ResourceTier: 1}).AnyTimes()
	m.EXPECT().Resource().Return(50.0, 100.0).AnyTimes()
	m.EXPECT().UnitsToReplenish(gomock.Any()).Return(domain.Units{}).AnyTimes()
	m.EXPECT().UnitsToHarvest(gomock.Any()).Return(harvest).AnyTimes()
	return m
}

// one worker fitting 20 units and one target whose harvest batch is {15, 5, 3}
func makeTwentyUnitScheduler(t *testing.T, ctrl *gomock.Controller) (*statefulScheduler, *memory.Worker, *schedulerDeps) {
	sim := memory.NewCluster()
	w := sim.AddWorker(cluster.NewIdNode("w1"), 20, testCosts)
	sim.AddTarget(cluster.NewIdNode("t1"), nil)
	model := fixedModel(ctrl, domain.Units{Harvest: 15, Replenish: 5, Suppress: 3})

	deps := getSimSchedDeps(sim, func(cluster.Node) domain.ResourceModel { return model })
	s := makeStatefulSchedulerDeps(t, deps)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	// Nothing to replenish: the first call only moves the queue to harvesting.
	s.QueueWork()
	s.QueueWork()
	return s, w, deps
}

func ticketOf(tickets []*domain.Ticket, kind domain.JobKind) *domain.Ticket {
	for _, t := range tickets {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

func Test_StatefulScheduler_Initialize(t *testing.T) {
	sim := memory.NewSimCluster(memory.SimConfig{
		HomeCapacity: 32, PurchasedWorkers: 3, WorkerCapacity: 16, Targets: 6, TargetMax: 100,
	}, testCosts)
	deps := getSimSchedDeps(sim, nil)
	s := makeStatefulSchedulerDeps(t, deps)

	if len(s.pool.workers) != 0 || len(s.queues) != 0 {
		t.Errorf("Expected Scheduler to be empty before Init")
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(s.pool.workers) != 4 {
		t.Errorf("Expected 4 workers, got %d", len(s.pool.workers))
	}
	if len(s.queues) != 6 {
		t.Errorf("Expected 6 job queues, got %d", len(s.queues))
	}
	if !s.pool.workers[0].privileged || s.pool.workers[0].node.Id() != "home" {
		t.Errorf("Expected home to be the privileged worker: %v", s.pool.workers[0])
	}
	for _, w := range s.pool.workers {
		for _, k := range domain.AllKinds {
			if !w.runner.(*memory.Worker).HasProgram(k.Program()) {
				t.Errorf("Expected %s deployed on %s", k.Program(), w.node.Id())
			}
		}
	}
	assert.NotEmpty(t, s.session)

	stats.VerifyStats("init", deps.statsRegistry, t, map[string]stats.Rule{
		stats.SchedInitCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
}

func Test_StatefulScheduler_InitFilters(t *testing.T) {
	sim := memory.NewSimCluster(memory.SimConfig{
		HomeCapacity: 32, PurchasedWorkers: 2, WorkerCapacity: 16, Targets: 9, TargetMax: 100,
	}, testCosts)
	sim.AddTarget(cluster.NewCategoryNode("unmodeled", memory.TargetCategory), nil)
	deps := getSimSchedDeps(sim, nil)
	deps.config.WorkerCategories = []string{memory.PurchasedCategory}
	deps.config.MinResourceTier = 2
	deps.config.MaxResourceTier = 2
	factoryCalls := 0
	rf := deps.rf
	deps.rf = func(n cluster.Node) (runner.Service, error) {
		factoryCalls++
		return rf(n)
	}
	s := makeStatefulSchedulerDeps(t, deps)
	ctx := context.Background()

	assert.NoError(t, s.Init(ctx))
	assert.Len(t, s.pool.workers, 2)
	assert.Len(t, s.queues, 3, "targets 3..5 are resource tier 2")
	assert.Equal(t, 0.0, s.pool.reservedCapacity(), "home is not in the pool")
	for _, q := range s.queues {
		assert.Equal(t, 2, q.Model().Attributes().ResourceTier)
	}

	assert.NoError(t, s.Init(ctx))
	assert.Equal(t, 2, factoryCalls, "runners are cached across Init")
}

func Test_StatefulScheduler_InitRunnerFactoryError(t *testing.T) {
	sim := memory.NewCluster()
	sim.AddWorker(cluster.NewIdNode("w1"), 8, testCosts)
	deps := getSimSchedDeps(sim, nil)
	deps.rf = func(n cluster.Node) (runner.Service, error) { return nil, errors.New("unreachable") }
	s := makeStatefulSchedulerDeps(t, deps)

	err := s.Init(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

type failingFetcher struct{}

func (failingFetcher) Fetch() ([]cluster.Node, error) { return nil, errors.New("targets unreachable") }

// A failed re-Init has already stopped every job, so none of the old
// session's tickets or commitments may survive it.
func Test_StatefulScheduler_FailedInitDropsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s, w, _ := makeTwentyUnitScheduler(t, ctrl)
	ctx := context.Background()

	assert.NoError(t, s.Run(ctx))
	harvest := ticketOf(s.dispatch, domain.Harvest)
	suppress := ticketOf(s.admission, domain.Suppress)
	if harvest == nil || suppress == nil {
		t.Fatalf("Expected harvest dispatched and suppress waiting, got %v %v", s.dispatch, s.admission)
	}
	assert.NotEmpty(t, s.commits)

	s.targetFetcher = failingFetcher{}
	err := s.Init(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "targets unreachable")

	assert.Empty(t, w.StatusAll(), "jobs are stopped")
	assert.Empty(t, s.admission)
	assert.Empty(t, s.dispatch)
	assert.Empty(t, s.commits)
	assert.Empty(t, s.queues)
	assert.Equal(t, 0, s.usage.Len())
	assert.True(t, harvest.IsDone())
	assert.True(t, suppress.IsDone())

	// nothing left to start until Init succeeds again
	assert.NoError(t, s.Run(ctx))
	assert.Equal(t, 0.0, w.Capacity().Used)
	assert.Equal(t, 0, s.Report().Waiting.Total())
}

// one worker, capacity 20, harvest {15, 5, 3}: harvest then replenish fill the
// worker, suppress waits for the next cycle.
func Test_StatefulScheduler_TwentyUnitWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s, _, deps := makeTwentyUnitScheduler(t, ctrl)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	harvest := ticketOf(s.dispatch, domain.Harvest)
	if harvest == nil || harvest.Progress() != 15 || !harvest.IsRunning() {
		t.Fatalf("Expected harvest fully committed and dispatched, got %v", harvest)
	}
	replenish := ticketOf(s.dispatch, domain.Replenish)
	if replenish == nil || replenish.Progress() != 5 || !replenish.IsRunning() {
		t.Fatalf("Expected replenish fully committed and dispatched, got %v", replenish)
	}
	suppress := ticketOf(s.admission, domain.Suppress)
	if suppress == nil || suppress.Progress() != 0 || !suppress.IsInitiating() {
		t.Fatalf("Expected suppress waiting in the admission queue, got %v", suppress)
	}
	assert.Len(t, s.admission, 1)
	assert.Len(t, s.dispatch, 2)

	units, ok := s.commits.get(harvest.Id, "w1")
	assert.True(t, ok)
	assert.Equal(t, 15, units)
	units, _ = s.commits.get(replenish.Id, "w1")
	assert.Equal(t, 5, units)
	assert.Equal(t, 20, s.commits.total())

	stats.VerifyStats("dispatch", deps.statsRegistry, t, map[string]stats.Rule{
		stats.SchedTicketsCreatedCounter:  {Checker: stats.Int64EqTest, Value: 3},
		stats.SchedUnitsDispatchedCounter: {Checker: stats.Int64EqTest, Value: 20},
		stats.SchedTicketsDoneCounter:     {Checker: stats.DoesNotExistTest},
	})
}

func Test_StatefulScheduler_CompletionClearsCommitments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s, w, deps := makeTwentyUnitScheduler(t, ctrl)
	ctx := context.Background()
	assert.NoError(t, s.Run(ctx))

	harvest := ticketOf(s.dispatch, domain.Harvest)
	w.Complete(harvest.Instance(""))
	assert.NoError(t, s.Run(ctx))

	assert.True(t, harvest.IsDone())
	assert.Nil(t, ticketOf(s.dispatch, domain.Harvest))
	_, ok := s.commits.get(harvest.Id, "w1")
	assert.False(t, ok)

	// The worker reports the freed capacity right away, suppress fits on the same pass.
	assert.NotNil(t, ticketOf(s.dispatch, domain.Suppress))
	assert.NotNil(t, ticketOf(s.dispatch, domain.Replenish))
	assert.Empty(t, s.admission)

	stats.VerifyStats("completion", deps.statsRegistry, t, map[string]stats.Rule{
		stats.SchedTicketsDoneCounter:      {Checker: stats.Int64EqTest, Value: 1},
		stats.SchedStaleCommitmentsCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
}

func Test_StatefulScheduler_SoleWorkerStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{})
	svc := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), svc, false)

	tk := domain.NewTicket(s.seq, "t1", domain.Replenish, 4)
	tk.SetStatus(domain.Initiating)
	tk.Commit(4)
	tk.SetStatus(domain.Running)
	s.dispatch = append(s.dispatch, tk)
	s.commits.add(tk.Id, "w1", 4)

	svc.EXPECT().IsRunning(tk.Instance("")).Return(false)
	s.pushWork()

	if !tk.IsDone() {
		t.Errorf("Expected ticket to be done, got %v", tk)
	}
	if len(s.dispatch) != 0 || len(s.commits) != 0 {
		t.Errorf("Expected dispatch queue and commitments to be empty: %v %v", s.dispatch, s.commits)
	}
}

func Test_StatefulScheduler_EmptyPoolCompletesDispatched(t *testing.T) {
	s := makeBareScheduler(t, SchedulerConfig{})
	tk := domain.NewTicket(s.seq, "t1", domain.Harvest, 1)
	tk.SetStatus(domain.Running)
	s.dispatch = []*domain.Ticket{tk}

	s.pushWork()
	assert.True(t, tk.IsDone())
	assert.Empty(t, s.dispatch)
}

func Test_StatefulScheduler_QueueWorkTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s, _, _ := makeTwentyUnitScheduler(t, ctrl)
	s.config.BackfillEnabled = true

	s.QueueWork()
	s.QueueWork()
	s.pollWork()

	assert.Len(t, s.admission, 3)
	seen := map[domain.TicketID]bool{}
	for _, tk := range s.admission {
		assert.False(t, seen[tk.Id])
		seen[tk.Id] = true
	}
	assert.Nil(t, ticketOf(s.admission, domain.Backfill), "a full queue gets no backfill")
}

func Test_StatefulScheduler_PollWorkSortIsStable(t *testing.T) {
	s := makeBareScheduler(t, SchedulerConfig{})
	a := domain.NewTicket(s.seq, "t1", domain.Harvest, 5)
	b := domain.NewTicket(s.seq, "t1", domain.Suppress, 2)
	c := domain.NewTicket(s.seq, "t2", domain.Harvest, 5)
	d := domain.NewTicket(s.seq, "t3", domain.Harvest, 3)
	e := domain.NewTicket(s.seq, "t2", domain.Suppress, 2)
	f := domain.NewTicket(s.seq, "t3", domain.Replenish, 1)
	s.admission = []*domain.Ticket{a, b, c, d, e, f}

	s.pollWork()

	expected := []*domain.Ticket{d, a, c, f, b, e}
	for i := range expected {
		if s.admission[i] != expected[i] {
			t.Fatalf("Unexpected order at %d: got %v, expected %v", i, s.admission[i], expected[i])
		}
	}
}

func Test_StatefulScheduler_GreedyEarlyExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{})
	w1 := runner.NewMockService(ctrl)
	w2 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)
	s.pool.add(cluster.NewIdNode("w2"), w2, false)

	harvest := domain.NewTicket(s.seq, "t1", domain.Harvest, 3)
	suppress := domain.NewTicket(s.seq, "t1", domain.Suppress, 2)
	harvest.SetStatus(domain.Initiating)
	suppress.SetStatus(domain.Initiating)
	s.admission = []*domain.Ticket{harvest, suppress}

	// w1 can't fit the first ticket and is never asked about the second.
	w1.EXPECT().MaxUnits(domain.Harvest).Return(0)

	gomock.InOrder(
		w2.EXPECT().MaxUnits(domain.Harvest).Return(5),
		w2.EXPECT().IsRunning(harvest.Instance("")).Return(false),
		w2.EXPECT().Start(gomock.Any(), harvest.Instance(""), 3).Return(nil),
		w2.EXPECT().MaxUnits(domain.Suppress).Return(1),
		w2.EXPECT().IsRunning(suppress.Instance("")).Return(false),
		w2.EXPECT().Start(gomock.Any(), suppress.Instance(""), 1).Return(nil),
	)

	assert.NoError(t, s.startWork(context.Background()))
	assert.True(t, harvest.IsRunning())
	assert.Equal(t, 1, suppress.Progress())
	assert.Equal(t, []*domain.Ticket{suppress}, s.admission)
	assert.Equal(t, []*domain.Ticket{harvest}, s.dispatch)
}

func Test_StatefulScheduler_SkipsRunningInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)

	tk := domain.NewTicket(s.seq, "t1", domain.Harvest, 3)
	tk.SetStatus(domain.Initiating)
	s.admission = []*domain.Ticket{tk}

	w1.EXPECT().MaxUnits(domain.Harvest).Return(10)
	w1.EXPECT().IsRunning(tk.Instance("")).Return(true)

	assert.NoError(t, s.startWork(context.Background()))
	assert.Equal(t, 0, tk.Progress())
	assert.Len(t, s.admission, 1)
}

func Test_StatefulScheduler_DuplicateInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{DuplicateInstances: true, InstanceTag: "hv"})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)

	tk := domain.NewTicket(s.seq, "t1", domain.Harvest, 3)
	tk.SetStatus(domain.Initiating)
	s.admission = []*domain.Ticket{tk}
	inst := domain.Instance{Kind: domain.Harvest, Target: "t1", Tag: "hv#1"}

	w1.EXPECT().MaxUnits(domain.Harvest).Return(10)
	w1.EXPECT().Start(gomock.Any(), inst, 3).Return(nil)
	assert.NoError(t, s.startWork(context.Background()))

	w1.EXPECT().IsRunning(inst).Return(true)
	s.pushWork()
	assert.True(t, tk.IsRunning())
}

func Test_StatefulScheduler_StartErrorIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)
	w1.EXPECT().Capacity().Return(runner.Capacity{Max: 10}).AnyTimes()

	tk := domain.NewTicket(s.seq, "t1", domain.Replenish, 2)
	tk.SetStatus(domain.Initiating)
	s.admission = []*domain.Ticket{tk}
	inst := tk.Instance("")

	w1.EXPECT().MaxUnits(domain.Replenish).Return(10).Times(2)
	w1.EXPECT().IsRunning(inst).Return(false).Times(2)
	w1.EXPECT().Start(gomock.Any(), inst, 2).Return(errors.New("exec failed"))

	err := s.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exec failed")
	assert.Equal(t, 0, tk.Progress())
	assert.Len(t, s.admission, 1)
	assert.Empty(t, s.commits)

	w1.EXPECT().Start(gomock.Any(), inst, 2).Return(nil)
	w1.EXPECT().IsRunning(inst).Return(true)
	assert.NoError(t, s.Run(context.Background()))
	assert.True(t, tk.IsRunning())
	assert.Empty(t, s.admission)
}

func Test_StatefulScheduler_PrivilegedReservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pool := newWorkerPool(4, domain.DefaultCosts)
	home := runner.NewMockService(ctrl)
	other := runner.NewMockService(ctrl)
	pool.add(cluster.NewIdNode("home"), home, true)
	pool.add(cluster.NewIdNode("pserv-0"), other, false)

	home.EXPECT().Capacity().Return(runner.Capacity{Max: 16, Used: 6}).AnyTimes()
	other.EXPECT().MaxUnits(domain.Harvest).Return(10)

	// (10 free - 4 reserved) / 1.7 is 3 harvest units
	assert.Equal(t, 3, pool.supportable(pool.workers[0], domain.Harvest))
	assert.Equal(t, 10, pool.supportable(pool.workers[1], domain.Harvest))
	assert.Equal(t, 1, pool.supportable(pool.workers[0], domain.Backfill))

	other.EXPECT().Capacity().Return(runner.Capacity{Max: 16, Used: 8}).AnyTimes()
	assert.Equal(t, 4.0, pool.reservedCapacity())
	assert.InDelta(t, 18.0/32.0, pool.load(), 1e-9)
}

func Test_StatefulScheduler_PrivilegedReservationExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pool := newWorkerPool(4, domain.DefaultCosts)
	home := runner.NewMockService(ctrl)
	pool.add(cluster.NewIdNode("home"), home, true)

	home.EXPECT().Capacity().Return(runner.Capacity{Max: 16, Used: 13}).AnyTimes()
	assert.Equal(t, 0, pool.supportable(pool.workers[0], domain.Harvest))
}

func Test_StatefulScheduler_BackfillSharesFreeCapacity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sim := memory.NewCluster()
	sim.AddWorker(cluster.NewIdNode("w1"), 21, testCosts)
	sim.AddTarget(cluster.NewIdNode("t1"), nil)
	sim.AddTarget(cluster.NewIdNode("t2"), nil)
	model := fixedModel(ctrl, domain.Units{})
	deps := getSimSchedDeps(sim, func(cluster.Node) domain.ResourceModel { return model })
	deps.config.BackfillEnabled = true
	s := makeStatefulSchedulerDeps(t, deps)
	assert.NoError(t, s.Init(context.Background()))

	s.QueueWork()

	first, second := s.queues[0], s.queues[1]
	assert.Equal(t, []domain.JobKind{domain.Backfill}, kindsOf(first.Tickets()))
	assert.Equal(t, 10, first.Tickets()[0].Requested)
	assert.Empty(t, second.Tickets(), "the first backfill claimed the free capacity")

	stats.VerifyStats("backfill", deps.statsRegistry, t, map[string]stats.Rule{
		stats.SchedBackfillTicketsCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
}

func Test_StatefulScheduler_BackfillDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sim := memory.NewCluster()
	sim.AddWorker(cluster.NewIdNode("w1"), 21, testCosts)
	sim.AddTarget(cluster.NewIdNode("t1"), nil)
	model := fixedModel(ctrl, domain.Units{})
	s := makeStatefulSchedulerDeps(t, getSimSchedDeps(sim, func(cluster.Node) domain.ResourceModel { return model }))
	assert.NoError(t, s.Init(context.Background()))

	s.QueueWork()
	s.QueueWork()
	assert.Empty(t, s.queues[0].Tickets())
}

func Test_StatefulScheduler_CanBoost(t *testing.T) {
	s := makeBareScheduler(t, SchedulerConfig{ThrottleEnabled: true, UsageWindowSize: 4})

	for i := 0; i < 3; i++ {
		s.usage.Push(0)
		if s.CanBoost() {
			t.Fatalf("Expected no boost with %d samples", s.usage.Len())
		}
	}
	s.usage.Push(0.5)
	if !s.CanBoost() {
		t.Fatalf("Expected boost with a full window of headroom")
	}

	// Only the latest sample changes: average free is still above 10%.
	s.usage.samples[len(s.usage.samples)-1] = 0.95
	if s.CanBoost() {
		t.Fatalf("Expected no boost when the latest sample leaves 5%% free")
	}

	s.usage.samples[len(s.usage.samples)-1] = 0.5
	s.config.ThrottleEnabled = false
	if s.CanBoost() {
		t.Fatalf("Expected no boost when the throttle is disabled")
	}
}

func Test_StatefulScheduler_CanBoostAverage(t *testing.T) {
	s := makeBareScheduler(t, SchedulerConfig{ThrottleEnabled: true, UsageWindowSize: 3})
	s.usage.Push(1)
	s.usage.Push(1)
	s.usage.Push(0.8)
	assert.False(t, s.CanBoost(), "average load is above 90%")
}

func Test_StatefulScheduler_Cleanup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{StopTimeout: time.Second})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)
	s.queues = []*JobQueue{
		NewJobQueue(cluster.NewIdNode("t1"), nil, s.seq, testCosts, 0.1, 0),
		NewJobQueue(cluster.NewIdNode("t2"), nil, s.seq, testCosts, 0.1, 0),
	}

	w1.EXPECT().Stop(gomock.Any(), domain.AllKinds, cluster.NodeId("t1"), "").Return(nil)
	w1.EXPECT().Stop(gomock.Any(), domain.AllKinds, cluster.NodeId("t2"), "").Return(nil)
	// t1 harvest takes one poll to go away.
	w1.EXPECT().IsRunning(domain.Instance{Kind: domain.Harvest, Target: "t1"}).Return(true)
	w1.EXPECT().IsRunning(gomock.Any()).Return(false).AnyTimes()

	assert.NoError(t, s.Cleanup(context.Background()))
}

func Test_StatefulScheduler_CleanupStopError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)
	s.queues = []*JobQueue{NewJobQueue(cluster.NewIdNode("t1"), nil, s.seq, testCosts, 0.1, 0)}

	w1.EXPECT().Stop(gomock.Any(), domain.AllKinds, cluster.NodeId("t1"), "").Return(errors.New("kill failed"))
	err := s.Cleanup(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "kill failed")
}

func Test_StatefulScheduler_CleanupTimesOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := makeBareScheduler(t, SchedulerConfig{StopTimeout: 50 * time.Millisecond})
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)
	s.queues = []*JobQueue{NewJobQueue(cluster.NewIdNode("t1"), nil, s.seq, testCosts, 0.1, 0)}

	w1.EXPECT().Stop(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	w1.EXPECT().IsRunning(gomock.Any()).Return(true).AnyTimes()
	assert.Error(t, s.Cleanup(context.Background()))
}

func Test_StatefulScheduler_DeployRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deployer := runner.NewMockDeployer(ctrl)
	s := makeBareScheduler(t, SchedulerConfig{DeployTimeout: 10 * time.Second})
	s.deployer = deployer
	w1 := runner.NewMockService(ctrl)
	s.pool.add(cluster.NewIdNode("w1"), w1, false)

	gomock.InOrder(
		deployer.EXPECT().EnsurePresent(gomock.Any(), s.pool.nodes()).Return(errors.New("copy failed")),
		deployer.EXPECT().EnsurePresent(gomock.Any(), s.pool.nodes()).Return(nil),
	)
	assert.NoError(t, s.DeployToWorkers(context.Background()))
}

func Test_StatefulScheduler_Report(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s, _, _ := makeTwentyUnitScheduler(t, ctrl)
	assert.NoError(t, s.Run(context.Background()))

	r := s.Report()
	assert.Equal(t, 1, r.Workers)
	assert.Equal(t, 1, r.Targets)
	assert.Equal(t, KindCounts{domain.Suppress: 3}, r.Waiting)
	assert.Equal(t, KindCounts{}, r.Initiating)
	assert.Equal(t, KindCounts{domain.Harvest: 15, domain.Replenish: 5}, r.Scheduled)
	assert.Equal(t, map[int]int{2: 1}, r.ResistanceTiers)
	assert.Equal(t, CapacityTotals{Max: 20, Used: 20, Reserved: 0, Free: 0}, r.Capacity)
	assert.Equal(t, ResourceTotals{Current: 50, Max: 100}, r.Resource)
	assert.Equal(t, map[string]int{"running": 1}, r.Phases)
	assert.Equal(t, 1.0, r.UsageAvg)
	assert.False(t, r.Boost)

	b, err := json.Marshal(r)
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"scheduled":{"harvest":15,"replenish":5}`)
}

func Test_StatefulScheduler_InitiatingCountsStartedUnits(t *testing.T) {
	s := makeBareScheduler(t, SchedulerConfig{})
	tk := domain.NewTicket(s.seq, "t1", domain.Harvest, 10)
	tk.SetStatus(domain.Initiating)
	tk.Commit(4)
	s.admission = []*domain.Ticket{tk}

	assert.Equal(t, KindCounts{domain.Harvest: 6}, s.WaitingByKind())
	assert.Equal(t, KindCounts{domain.Harvest: 4}, s.InitiatingByKind())
	assert.Equal(t, 10, s.WaitingByKind().Total()+s.InitiatingByKind().Total())
}

func Test_StatefulScheduler_Loop(t *testing.T) {
	sim := memory.NewSimCluster(memory.SimConfig{
		HomeCapacity: 64, PurchasedWorkers: 2, WorkerCapacity: 32, Targets: 3, TargetMax: 100,
		AutoComplete: time.Millisecond,
	}, testCosts)
	deps := getSimSchedDeps(sim, nil)
	deps.config.TickRate = time.Millisecond
	s := makeStatefulSchedulerDeps(t, deps)
	assert.NoError(t, s.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	steps := 0
	err := s.Loop(ctx, func(r Report) {
		steps++
		if r.Workers != 3 {
			t.Errorf("Unexpected report %+v", r)
		}
		if steps == 5 {
			cancel()
		}
	})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 5, steps)

	stats.VerifyStats("loop", deps.statsRegistry, t, map[string]stats.Rule{
		stats.SchedJobQueuesGauge: {Checker: stats.Int64EqTest, Value: 3},
		stats.PoolWorkersGauge:    {Checker: stats.Int64EqTest, Value: 3},
	})
}
