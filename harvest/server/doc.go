/*
package server provides the stateful harvest scheduler, which keeps a pool of
workers busy with jobs against a set of targets.

* Concepts *
Job Ticket:
  A kind (harvest, replenish, suppress, backfill), a target and a number of units.
  Tickets move Created -> Initiating -> Running -> Done and are never resurrected.

Job Queue:
  One per target. Replenishes the target first (Initiating), then harvests it
  (Running). A queue emits its next batch of tickets only once every ticket of
  the previous batch is Done.

Admission queue:
  Tickets handed over by the job queues that are not fully committed to workers yet.
  Sorted by priority (harvest first) then by requested units, smallest first.

Dispatch queue:
  Fully committed tickets waiting for every worker to finish them.

Boost:
  Once the usage window is full, and both the average and the latest sample leave
  more than 10% of the pool free, queues harvest with the boost fraction and the
  dispatch pass is paced by a rate limiter between workers.

* Logic *
Step:
  QueueWork: every job queue emits its next batch, plus backfill into idle capacity.
  pollWork: move new tickets into the admission queue and sort it.
  startWork: for each worker, for each admitted ticket, start as many units as fit.
    The first ticket that doesn't fit ends the pass on that worker.
  pushWork: a dispatched ticket no worker is running anymore is Done.
  recordUsage: sample the pool load into the usage window.

Completion is only observed by polling workers, starting a job never waits for it.
Capacity freed during a pass is only seen on the next one.
*/
package server
