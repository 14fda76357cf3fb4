package stats

/*
Names of the metrics recorded by the scheduler. Add new names here and keep the
comment describing what is measured.
*/
const (
	/************************* Scheduler cycle metrics **************************/
	/*
		time spent in one full Step (queueWork + run)
	*/
	SchedStepLatency_ms = "stepLatency_ms"

	/*
		time spent pulling new tickets into the admission queue and sorting it
	*/
	SchedPollWorkLatency_ms = "pollWorkLatency_ms"

	/*
		time spent in one dispatch pass
	*/
	SchedStartWorkLatency_ms = "startWorkLatency_ms"

	/*
		time spent in one completion pass
	*/
	SchedPushWorkLatency_ms = "pushWorkLatency_ms"

	/*
		time spent asking the job queues for new tickets
	*/
	SchedQueueWorkLatency_ms = "queueWorkLatency_ms"

	/*
		number of step errors (runner start/stop failures surfaced to the loop)
	*/
	SchedStepErrCounter = "stepErrCounter"

	/*
		number of times the scheduler was (re)initialized
	*/
	SchedInitCounter = "initCounter"

	/************************* Ticket metrics **************************/
	/*
		number of tickets emitted by job queues
	*/
	SchedTicketsCreatedCounter = "ticketsCreatedCounter"

	/*
		number of units handed to worker runners
	*/
	SchedUnitsDispatchedCounter = "unitsDispatchedCounter"

	/*
		number of tickets observed done by the completion pass
	*/
	SchedTicketsDoneCounter = "ticketsDoneCounter"

	/*
		number of stale commitment entries cleared by the completion pass
	*/
	SchedStaleCommitmentsCounter = "staleCommitmentsCounter"

	/*
		number of backfill tickets emitted
	*/
	SchedBackfillTicketsCounter = "backfillTicketsCounter"

	/*
		tickets waiting in the admission queue (status Initiating)
	*/
	SchedAdmissionQueueGauge = "admissionQueueGauge"

	/*
		tickets in the dispatch queue (status Running)
	*/
	SchedDispatchQueueGauge = "dispatchQueueGauge"

	/*
		number of entries in the (ticket, worker) commitment table
	*/
	SchedCommitmentsGauge = "commitmentsGauge"

	/*
		number of job queues (one per target)
	*/
	SchedJobQueuesGauge = "jobQueuesGauge"

	/************************* Capacity metrics **************************/
	/*
		number of workers in the pool
	*/
	PoolWorkersGauge = "poolWorkersGauge"

	/*
		total capacity of the worker pool
	*/
	PoolMaxCapacityGauge = "poolMaxCapacityGauge"

	/*
		capacity in use across the worker pool
	*/
	PoolUsedCapacityGauge = "poolUsedCapacityGauge"

	/*
		most recent load fraction pushed into the usage window
	*/
	PoolLoadGauge = "poolLoadGauge"

	/*
		1 while the throttle allows boosting, 0 otherwise
	*/
	PoolBoostGauge = "poolBoostGauge"

	/************************* Deploy metrics **************************/
	/*
		number of program copies pushed to workers
	*/
	DeployCopiesCounter = "deployCopiesCounter"

	/*
		number of failed program copies
	*/
	DeployErrCounter = "deployErrCounter"
)
