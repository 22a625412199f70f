// Package queue implements the single-slot admission queue that
// serializes all retrieval work. At most one job is active process-wide;
// everyone else waits in strict FIFO order with their job stashed until
// the completion protocol reaches them.
package queue

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

// ErrInvariant indicates two jobs were about to become active at the
// same time. This is a programming error, never reachable from user
// input; MarkStarted panics with it wrapped.
var ErrInvariant = errors.New("admission queue invariant violated: second active job")

// Queue is the process-wide admission queue. All methods are safe for
// concurrent use; the lock covers only state mutation, never I/O.
type Queue struct {
	mu      sync.Mutex
	active  int64 // 0 means no active requester
	waiting []int64
	stash   map[int64]models.Job
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{stash: make(map[int64]models.Job)}
}

// Submit admits a job. If nothing is active the requester becomes the
// active one immediately and 0 is returned, signalling the caller to
// start processing. Otherwise the requester joins the waiting list
// (idempotently, keeping its original position) and its 1-based
// position is returned. The stashed job is replaced either way so the
// latest format choice wins.
func (q *Queue) Submit(requesterID int64, job models.Job) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == 0 {
		q.active = requesterID
		log.WithField("user", requesterID).Debug("Queue idle, job admitted immediately")
		return 0
	}

	q.stash[requesterID] = job
	if pos := q.positionLocked(requesterID); pos > 0 {
		return pos
	}
	q.waiting = append(q.waiting, requesterID)
	pos := len(q.waiting)
	log.WithFields(log.Fields{"user": requesterID, "position": pos}).Info("Job queued")
	return pos
}

// MarkStarted records requesterID as the active job's owner and removes
// it from the waiting list. Panics when another requester is already
// active.
func (q *Queue) MarkStarted(requesterID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != 0 && q.active != requesterID {
		panic(fmt.Errorf("%w: active=%d, starting=%d", ErrInvariant, q.active, requesterID))
	}
	q.active = requesterID
	q.removeWaitingLocked(requesterID)
	log.WithField("user", requesterID).Info("Processing started")
}

// MarkFinished releases the single processing slot. Callers must invoke
// it exactly once per started job, on success and failure alike.
func (q *Queue) MarkFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()

	log.WithField("user", q.active).Info("Processing finished")
	q.active = 0
}

// PopNext removes and returns the head of the waiting list together
// with its stashed job. ok is false when nobody is waiting or the head
// has no stashed job.
func (q *Queue) PopNext() (requesterID int64, job models.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.waiting) > 0 {
		head := q.waiting[0]
		q.waiting = q.waiting[1:]
		job, found := q.stash[head]
		if !found {
			log.WithField("user", head).Warn("Waiting entry had no stashed job, skipping")
			continue
		}
		delete(q.stash, head)
		return head, job, true
	}
	return 0, models.Job{}, false
}

// Drop removes a requester from the waiting list and discards its
// stashed job, e.g. when the user cancels while waiting.
func (q *Queue) Drop(requesterID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeWaitingLocked(requesterID)
	delete(q.stash, requesterID)
}

// IsActive reports whether a job is currently being processed.
func (q *Queue) IsActive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active != 0
}

// ActiveRequester returns the active requester id, or 0 when idle.
func (q *Queue) ActiveRequester() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Depth returns the number of waiting requesters.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// PositionOf returns the requester's 1-based position in the waiting
// list, or 0 when it is not waiting.
func (q *Queue) PositionOf(requesterID int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.positionLocked(requesterID)
}

func (q *Queue) positionLocked(requesterID int64) int {
	for i, id := range q.waiting {
		if id == requesterID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) removeWaitingLocked(requesterID int64) {
	for i, id := range q.waiting {
		if id == requesterID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}
