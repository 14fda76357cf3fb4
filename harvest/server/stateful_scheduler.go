package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	lru "github.com/hashicorp/golang-lru"
	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/common"
	"github.com/4rg0n/bitburner-sub000/common/stats"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
)

const (
	// Provide defaults for config settings that should never be uninitialized/zero.

	// Fraction of a target's resource a harvest batch takes.
	DefaultHarvestFraction = 0.1

	// Worker whose capacity is partly reserved.
	DefaultPrivilegedWorker = "home"

	// Minimum time between two workers of a dispatch pass while boosting.
	DefaultBoostYield = 5 * time.Millisecond

	// Both the window average and the latest sample must leave more than this
	// fraction of the pool free to boost.
	boostFreeThreshold = 0.10

	stopRetryInitialInterval = 10 * time.Millisecond
)

// SchedulerConfig variables read at initialization
// HarvestFraction - fraction of a target's resource one harvest batch takes.
// BoostHarvestFraction - fraction taken instead while boosting, ignored when zero.
// WorkerCategories, TargetCategories - node categories making up the pools, all when empty.
// MinResourceTier, MaxResourceTier - bounds on the target resource tier, unbounded when zero.
// BackfillEnabled - fill idle capacity with backfill jobs.
// ThrottleEnabled - allow boosting once the usage window shows enough headroom.
// DuplicateInstances - start a new tagged instance even when the job already runs on a worker.
// InstanceTag - tag given to started jobs, suffixed with the ticket id in duplicate mode.
// PrivilegedWorker, ReservedCapacity - capacity on that worker the scheduler leaves alone.
// StopTimeout - how long Cleanup waits for stopped jobs to disappear.
// DeployTimeout - how long to keep retrying program deployment.
type SchedulerConfig struct {
	HarvestFraction      float64
	BoostHarvestFraction float64
	WorkerCategories     []string
	TargetCategories     []string
	MinResourceTier      int
	MaxResourceTier      int
	BackfillEnabled      bool
	ThrottleEnabled      bool
	DuplicateInstances   bool
	InstanceTag          string
	PrivilegedWorker     string
	ReservedCapacity     float64
	UsageWindowSize      int
	TickRate             time.Duration
	BoostYield           time.Duration
	StopTimeout          time.Duration
	DeployTimeout        time.Duration
	RunnerCacheSize      int
	Costs                domain.Costs
}

func (sc *SchedulerConfig) String() string {
	return fmt.Sprintf("SchedulerConfig: HarvestFraction: %.3f, BoostHarvestFraction: %.3f, WorkerCategories: %v, "+
		"TargetCategories: %v, ResourceTiers: [%d, %d], BackfillEnabled: %t, ThrottleEnabled: %t, DuplicateInstances: %t, "+
		"InstanceTag: %q, PrivilegedWorker: %s, ReservedCapacity: %.2f, UsageWindowSize: %d, TickRate: %s",
		sc.HarvestFraction, sc.BoostHarvestFraction, sc.WorkerCategories, sc.TargetCategories, sc.MinResourceTier,
		sc.MaxResourceTier, sc.BackfillEnabled, sc.ThrottleEnabled, sc.DuplicateInstances, sc.InstanceTag,
		sc.PrivilegedWorker, sc.ReservedCapacity, sc.UsageWindowSize, sc.TickRate)
}

// Scheduler that owns the worker pool, one job queue per target and the
// tickets moving between them.
//
// Scheduler Concurrency: all scheduler state is only touched from the goroutine
// calling Step/Run/Loop, there are no locks. Jobs run outside the process and are
// only polled, so capacity freed during a pass is seen on the next one.
type statefulScheduler struct {
	config        *SchedulerConfig
	workerFetcher cluster.Fetcher
	targetFetcher cluster.Fetcher
	runnerFactory runner.Factory
	modelFactory  domain.ModelFactory
	deployer      runner.Deployer
	runners       *lru.Cache // NodeId -> runner.Service, survives re-Init.
	limiter       *rate.Limiter
	seq           *domain.Sequence
	session       string

	// Scheduler State
	pool      *workerPool
	queues    []*JobQueue      // one per target, ordered by target id.
	admission []*domain.Ticket // Initiating tickets, sorted by pollWork.
	dispatch  []*domain.Ticket // Running tickets awaiting completion.
	commits   commitments
	usage     *UsageWindow

	stat stats.StatsReceiver
}

func (s *statefulScheduler) String() string {
	return fmt.Sprintf("%s, session: %s, num workers: %d, num targets: %d",
		s.config, s.session, len(s.pool.workers), len(s.queues))
}

// Create a new StatefulScheduler that implements the Scheduler interface
// workers, targets - enumerate the nodes making up the pools
// runner.Factory - makes the job host of a worker
// domain.ModelFactory - makes the resource model of a target
// runner.Deployer - copies job programs to workers, may be nil
// SchedulerConfig - additional configuration settings for the scheduler
// StatsReceiver - stats receiver to log statistics to
// The scheduler is empty until Init is called.
func NewStatefulScheduler(
	workers cluster.Fetcher,
	targets cluster.Fetcher,
	rf runner.Factory,
	mf domain.ModelFactory,
	deployer runner.Deployer,
	config SchedulerConfig,
	stat stats.StatsReceiver) (*statefulScheduler, error) {

	if config.HarvestFraction <= 0 || config.HarvestFraction > 1 {
		log.Warnf("HarvestFraction %.3f out of (0, 1], using %.3f", config.HarvestFraction, DefaultHarvestFraction)
		config.HarvestFraction = DefaultHarvestFraction
	}
	if config.BoostHarvestFraction < 0 || config.BoostHarvestFraction > 1 {
		config.BoostHarvestFraction = 0
	}
	if config.PrivilegedWorker == "" {
		config.PrivilegedWorker = DefaultPrivilegedWorker
	}
	if config.UsageWindowSize == 0 {
		config.UsageWindowSize = common.DefaultUsageWindowSize
	}
	if config.TickRate == 0 {
		config.TickRate = common.DefaultTickRate
	}
	if config.BoostYield == 0 {
		config.BoostYield = DefaultBoostYield
	}
	if config.StopTimeout == 0 {
		config.StopTimeout = common.DefaultStopTimeout
	}
	if config.DeployTimeout == 0 {
		config.DeployTimeout = common.DefaultDeployTimeout
	}
	if config.RunnerCacheSize == 0 {
		config.RunnerCacheSize = common.DefaultRunnerCacheSize
	}
	if config.Costs == nil {
		config.Costs = domain.DefaultCosts
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}

	runners, err := lru.New(config.RunnerCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating runner cache")
	}

	limit := rate.Inf
	if config.BoostYield > 0 {
		limit = rate.Every(config.BoostYield)
	}

	s := &statefulScheduler{
		config:        &config,
		workerFetcher: workers,
		targetFetcher: targets,
		runnerFactory: rf,
		modelFactory:  mf,
		deployer:      deployer,
		runners:       runners,
		limiter:       rate.NewLimiter(limit, 1),
		seq:           &domain.Sequence{},

		pool:    newWorkerPool(config.ReservedCapacity, config.Costs),
		commits: commitments{},
		usage:   NewUsageWindow(config.UsageWindowSize),
		stat:    stat,
	}
	log.Info(s)
	return s, nil
}

// Init stops every known job, then rebuilds the pools and queues from scratch.
func (s *statefulScheduler) Init(ctx context.Context) error {
	if err := s.Cleanup(ctx); err != nil {
		return errors.Wrap(err, "cleanup before init")
	}
	// every job is stopped, nothing booked for them may survive a failed rebuild
	s.dropSession()
	s.session = common.GenUUID()
	s.stat.Counter(stats.SchedInitCounter).Inc(1)

	workers, err := cluster.FetchFiltered(s.workerFetcher, cluster.CategoryFilter(s.config.WorkerCategories...))
	if err != nil {
		return errors.Wrap(err, "fetching workers")
	}
	targets, err := cluster.FetchFiltered(s.targetFetcher, cluster.CategoryFilter(s.config.TargetCategories...))
	if err != nil {
		return errors.Wrap(err, "fetching targets")
	}

	pool := newWorkerPool(s.config.ReservedCapacity, s.config.Costs)
	for _, node := range workers {
		svc, err := s.runnerFor(node)
		if err != nil {
			return errors.Wrapf(err, "making runner for %s", node.Id())
		}
		pool.add(node, svc, string(node.Id()) == s.config.PrivilegedWorker)
	}

	queues := []*JobQueue{}
	for _, node := range targets {
		model := s.modelFactory(node)
		if model == nil {
			log.WithFields(
				log.Fields{
					"session": s.session,
					"target":  node.Id(),
				}).Warn("No resource model for target, skipping")
			continue
		}
		if !s.inResourceTiers(model.Attributes()) {
			continue
		}
		queues = append(queues, NewJobQueue(node, model, s.seq, s.config.Costs,
			s.config.HarvestFraction, s.config.BoostHarvestFraction))
	}

	s.pool = pool
	s.queues = queues

	log.WithFields(
		log.Fields{
			"session": s.session,
			"workers": len(pool.workers),
			"targets": len(queues),
		}).Info("Initialized scheduler")

	return s.DeployToWorkers(ctx)
}

// dropSession marks every ticket of the current session Done and empties the
// queues, the commitment table and the usage window. The pool is kept so a
// later Init can still stop jobs on it.
func (s *statefulScheduler) dropSession() {
	dropped := 0
	for _, tickets := range [][]*domain.Ticket{s.admission, s.dispatch} {
		for _, t := range tickets {
			t.SetStatus(domain.Done)
			dropped++
		}
	}
	for _, q := range s.queues {
		for _, t := range q.Tickets() {
			t.SetStatus(domain.Done)
		}
	}
	if dropped > 0 || len(s.commits) > 0 {
		log.WithFields(
			log.Fields{
				"session":     s.session,
				"tickets":     dropped,
				"commitments": len(s.commits),
			}).Info("Dropped session state")
	}
	s.queues = nil
	s.admission = nil
	s.dispatch = nil
	s.commits = commitments{}
	s.usage.Reset()
}

func (s *statefulScheduler) inResourceTiers(attrs domain.TargetAttributes) bool {
	if s.config.MinResourceTier > 0 && attrs.ResourceTier < s.config.MinResourceTier {
		return false
	}
	if s.config.MaxResourceTier > 0 && attrs.ResourceTier > s.config.MaxResourceTier {
		return false
	}
	return true
}

func (s *statefulScheduler) runnerFor(node cluster.Node) (runner.Service, error) {
	if svc, ok := s.runners.Get(node.Id()); ok {
		return svc.(runner.Service), nil
	}
	svc, err := s.runnerFactory(node)
	if err != nil {
		return nil, err
	}
	s.runners.Add(node.Id(), svc)
	return svc, nil
}

// Cleanup force-stops all kinds on every (worker, target) pair and waits for them to be gone.
func (s *statefulScheduler) Cleanup(ctx context.Context) error {
	for _, w := range s.pool.workers {
		for _, q := range s.queues {
			target := q.Target().Id()
			if err := w.runner.Stop(ctx, domain.AllKinds, target, ""); err != nil {
				return errors.Wrapf(err, "stopping jobs against %s on %s", target, w.node.Id())
			}
			if err := s.awaitStopped(ctx, w, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *statefulScheduler) awaitStopped(ctx context.Context, w *workerState, target cluster.NodeId) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = stopRetryInitialInterval
	b.MaxElapsedTime = s.config.StopTimeout
	err := backoff.Retry(func() error {
		for _, kind := range domain.AllKinds {
			inst := domain.Instance{Kind: kind, Target: target}
			if w.runner.IsRunning(inst) {
				return fmt.Errorf("%s still running on %s", inst, w.node.Id())
			}
		}
		return nil
	}, backoff.WithContext(b, ctx))
	return errors.Wrap(err, "waiting for stopped jobs")
}

// DeployToWorkers makes sure every worker has the job programs, retrying until DeployTimeout.
func (s *statefulScheduler) DeployToWorkers(ctx context.Context) error {
	if s.deployer == nil || len(s.pool.workers) == 0 {
		return nil
	}
	nodes := s.pool.nodes()
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.config.DeployTimeout
	err := backoff.Retry(func() error {
		err := s.deployer.EnsurePresent(ctx, nodes)
		if err != nil {
			log.WithFields(
				log.Fields{
					"session": s.session,
					"workers": len(nodes),
					"err":     err,
				}).Info("Deploy failed, retrying")
		}
		return err
	}, backoff.WithContext(b, ctx))
	return errors.Wrap(err, "deploying job programs")
}

// QueueWork lets every job queue emit its next batch, then, with backfill
// enabled, hands the capacity no queue needs to running queues that are idle.
func (s *statefulScheduler) QueueWork() {
	defer s.stat.Latency(stats.SchedQueueWorkLatency_ms).Time().Stop()

	boost := s.CanBoost()
	for _, q := range s.queues {
		if n := q.Queue(boost); n > 0 {
			s.stat.Counter(stats.SchedTicketsCreatedCounter).Inc(int64(n))
		}
	}
	if !s.config.BackfillEnabled {
		return
	}

	committed := 0.0
	for _, q := range s.queues {
		committed += q.RamUsage()
	}
	free := s.pool.capacity().Max - s.pool.reservedCapacity() - committed
	for _, q := range s.queues {
		// each claim comes off the shared free capacity before the next queue asks
		if free < s.config.Costs.Of(domain.Backfill) {
			return
		}
		if !q.IsRunning() || q.IsFull() {
			continue
		}
		if claimed := q.QueueBackfill(free); claimed > 0 {
			free -= claimed
			s.stat.Counter(stats.SchedBackfillTicketsCounter).Inc(1)
			s.stat.Counter(stats.SchedTicketsCreatedCounter).Inc(1)
		}
	}
}

// Run is one full cycle: pollWork, startWork, pushWork and recordUsage.
// A start failure is returned after the cycle completes, dispatch retries it next cycle.
func (s *statefulScheduler) Run(ctx context.Context) error {
	s.pollWork()
	err := s.startWork(ctx)
	s.pushWork()
	s.recordUsage()
	return err
}

// run one loop iteration
func (s *statefulScheduler) Step(ctx context.Context) error {
	defer s.stat.Latency(stats.SchedStepLatency_ms).Time().Stop()

	s.QueueWork()
	err := s.Run(ctx)
	if err != nil {
		s.stat.Counter(stats.SchedStepErrCounter).Inc(1)
	}
	s.updateStats()
	return err
}

func (s *statefulScheduler) Loop(ctx context.Context, onStep func(Report)) error {
	ticker := time.NewTicker(s.config.TickRate)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			log.WithFields(
				log.Fields{
					"session": s.session,
					"err":     err,
				}).Error("Step failed")
		}
		if onStep != nil {
			onStep(s.Report())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollWork moves the new tickets of every queue into the admission queue and
// sorts it by priority, then by requested units. The sort is stable.
func (s *statefulScheduler) pollWork() {
	defer s.stat.Latency(stats.SchedPollWorkLatency_ms).Time().Stop()

	for _, q := range s.queues {
		s.admission = append(s.admission, q.TakeNew()...)
	}
	sort.SliceStable(s.admission, func(i, j int) bool {
		a, b := s.admission[i], s.admission[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Requested < b.Requested
	})
	if log.IsLevelEnabled(log.TraceLevel) {
		log.WithFields(
			log.Fields{
				"session":   s.session,
				"admission": render.Render(s.admission),
			}).Trace("Polled work")
	}
}

// startWork packs admitted tickets onto workers, workers outer and tickets inner.
// The first ticket that doesn't fit on a worker ends the pass on that worker.
func (s *statefulScheduler) startWork(ctx context.Context) error {
	defer s.stat.Latency(stats.SchedStartWorkLatency_ms).Time().Stop()
	defer s.dropCommitted()

	boost := s.CanBoost()
	for _, w := range s.pool.workers {
		for _, t := range s.admission {
			if !t.IsInitiating() {
				continue
			}
			units := s.pool.supportable(w, t.Kind)
			if units == 0 {
				break
			}
			inst := t.Instance(s.instanceTag(t))
			if !s.config.DuplicateInstances && w.runner.IsRunning(inst) {
				continue
			}

			n := t.Remaining()
			if units < n {
				n = units
			}
			if err := w.runner.Start(ctx, inst, n); err != nil {
				return errors.Wrapf(err, "starting %s on %s", inst, w.node.Id())
			}
			t.Commit(n)
			s.commits.add(t.Id, w.node.Id(), n)
			s.stat.Counter(stats.SchedUnitsDispatchedCounter).Inc(int64(n))
			log.WithFields(
				log.Fields{
					"session":   s.session,
					"ticket":    t.Id,
					"instance":  inst.String(),
					"worker":    w.node.Id(),
					"units":     n,
					"progress":  t.Progress(),
					"requested": t.Requested,
				}).Debug("Started units")

			if t.IsCommitted() {
				t.SetStatus(domain.Running)
				s.dispatch = append(s.dispatch, t)
			}
		}
		if boost {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// dropCommitted removes the tickets startWork moved to the dispatch queue.
func (s *statefulScheduler) dropCommitted() {
	kept := s.admission[:0]
	for _, t := range s.admission {
		if t.IsInitiating() {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.admission); i++ {
		s.admission[i] = nil
	}
	s.admission = kept
}

// pushWork clears the commitment of every worker no longer running a
// dispatched ticket. A ticket no worker runs anymore is Done.
func (s *statefulScheduler) pushWork() {
	defer s.stat.Latency(stats.SchedPushWorkLatency_ms).Time().Stop()

	kept := []*domain.Ticket{}
	for _, t := range s.dispatch {
		inst := t.Instance(s.instanceTag(t))
		running := false
		for _, w := range s.pool.workers {
			if w.runner.IsRunning(inst) {
				running = true
				continue
			}
			if s.commits.clear(t.Id, w.node.Id()) {
				s.stat.Counter(stats.SchedStaleCommitmentsCounter).Inc(1)
			}
		}
		if running {
			kept = append(kept, t)
			continue
		}
		t.SetStatus(domain.Done)
		s.stat.Counter(stats.SchedTicketsDoneCounter).Inc(1)
		log.WithFields(
			log.Fields{
				"session": s.session,
				"ticket":  t.Id,
				"target":  t.Target,
				"kind":    t.Kind,
				"units":   t.Requested,
			}).Debug("Ticket done")
	}
	s.dispatch = kept
}

func (s *statefulScheduler) recordUsage() {
	s.usage.Push(s.pool.load())
}

// CanBoost is false until the usage window is full. Then it needs both the
// average and the latest sample to leave more than 10% of the pool free.
func (s *statefulScheduler) CanBoost() bool {
	if !s.config.ThrottleEnabled || !s.usage.IsFull() {
		return false
	}
	return 1-s.usage.Avg() > boostFreeThreshold && 1-s.usage.Last() > boostFreeThreshold
}

func (s *statefulScheduler) instanceTag(t *domain.Ticket) string {
	if !s.config.DuplicateInstances {
		return s.config.InstanceTag
	}
	return strings.Join([]string{s.config.InstanceTag, t.Id.String()}, "#")
}

// update the stats monitoring values
func (s *statefulScheduler) updateStats() {
	capacity := s.pool.capacity()
	s.stat.Gauge(stats.SchedAdmissionQueueGauge).Update(int64(len(s.admission)))
	s.stat.Gauge(stats.SchedDispatchQueueGauge).Update(int64(len(s.dispatch)))
	s.stat.Gauge(stats.SchedCommitmentsGauge).Update(int64(len(s.commits)))
	s.stat.Gauge(stats.SchedJobQueuesGauge).Update(int64(len(s.queues)))
	s.stat.Gauge(stats.PoolWorkersGauge).Update(int64(len(s.pool.workers)))
	s.stat.GaugeFloat(stats.PoolMaxCapacityGauge).Update(capacity.Max)
	s.stat.GaugeFloat(stats.PoolUsedCapacityGauge).Update(capacity.Used)
	s.stat.GaugeFloat(stats.PoolLoadGauge).Update(s.usage.Last())
	boost := int64(0)
	if s.CanBoost() {
		boost = 1
	}
	s.stat.Gauge(stats.PoolBoostGauge).Update(boost)
}

var _ Scheduler = (*statefulScheduler)(nil)
