package domain

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
)

type TicketID uint64

func (id TicketID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TicketStatus only ever moves forward: Created, Initiating, Running, Done.
type TicketStatus int

const (
	// Emitted by a job queue, not yet handed to the scheduler.
	Created TicketStatus = iota
	// In the admission queue, partially committed to workers.
	Initiating
	// Fully committed, waiting for every worker to finish.
	Running
	// No worker runs the job anymore.
	Done
)

func (s TicketStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Initiating:
		return "initiating"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("TicketStatus(%d)", int(s))
	}
}

// Sequence hands out process-unique, increasing ticket ids.
// The zero value is ready to use and starts at 1.
type Sequence struct {
	last uint64
}

func (s *Sequence) Next() TicketID {
	return TicketID(atomic.AddUint64(&s.last, 1))
}

// Ticket is one job: a kind, a target and a unit count, tracked through its lifecycle.
// Target, Kind, Requested and Priority never change after creation.
type Ticket struct {
	Id        TicketID
	Target    cluster.NodeId
	Kind      JobKind
	Requested int
	Priority  Priority

	progress int
	status   TicketStatus
}

// NewTicket creates a ticket with its priority derived from kind. Requested is at least 1.
func NewTicket(seq *Sequence, target cluster.NodeId, kind JobKind, units int) *Ticket {
	return NewTicketWithPriority(seq, target, kind, units, kind.DefaultPriority())
}

func NewTicketWithPriority(seq *Sequence, target cluster.NodeId, kind JobKind, units int, p Priority) *Ticket {
	if units < 1 {
		units = 1
	}
	return &Ticket{
		Id:        seq.Next(),
		Target:    target,
		Kind:      kind,
		Requested: units,
		Priority:  p,
		status:    Created,
	}
}

func (t *Ticket) IsNew() bool        { return t.status == Created }
func (t *Ticket) IsInitiating() bool { return t.status == Initiating }
func (t *Ticket) IsRunning() bool    { return t.status == Running }
func (t *Ticket) IsDone() bool       { return t.status == Done }

func (t *Ticket) Status() TicketStatus { return t.status }

// SetStatus doesn't check the direction of the transition, callers only move forward.
func (t *Ticket) SetStatus(s TicketStatus) {
	t.status = s
}

// Progress is the number of units committed to workers so far.
func (t *Ticket) Progress() int { return t.progress }

func (t *Ticket) Remaining() int { return t.Requested - t.progress }

// IsCommitted reports whether every requested unit has been committed.
func (t *Ticket) IsCommitted() bool { return t.progress >= t.Requested }

// Commit adds n units of progress, clamped to [0, Requested], and returns the units actually added.
func (t *Ticket) Commit(n int) int {
	if n < 0 {
		n = 0
	}
	if n > t.Remaining() {
		n = t.Remaining()
	}
	t.progress += n
	return n
}

// Instance identifies this ticket's job on a worker under the given tag.
func (t *Ticket) Instance(tag string) Instance {
	return Instance{Kind: t.Kind, Target: t.Target, Tag: tag}
}

func (t *Ticket) String() string {
	return fmt.Sprintf("{id:%s, target:%s, kind:%s, progress:%d/%d, priority:%d, status:%s}",
		t.Id, t.Target, t.Kind, t.progress, t.Requested, t.Priority, t.status)
}

// Instance is a job as a worker sees it: which program, against which
// target, and a tag telling apart concurrent copies of the same pair.
// An empty Tag matches every copy when querying or stopping.
type Instance struct {
	Kind   JobKind
	Target cluster.NodeId
	Tag    string
}

func (i Instance) String() string {
	if i.Tag == "" {
		return fmt.Sprintf("%s(%s)", i.Kind.Program(), i.Target)
	}
	return fmt.Sprintf("%s(%s)#%s", i.Kind.Program(), i.Target, i.Tag)
}

// Matches reports whether i names other, treating an empty tag on i as a wildcard.
func (i Instance) Matches(other Instance) bool {
	return i.Kind == other.Kind && i.Target == other.Target && (i.Tag == "" || i.Tag == other.Tag)
}
