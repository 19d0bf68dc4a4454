package tasks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/FGuerriero/get-volunteers-backend/internal/app"
	"github.com/FGuerriero/get-volunteers-backend/internal/db"
	svcErr "github.com/FGuerriero/get-volunteers-backend/internal/errors"
	"github.com/FGuerriero/get-volunteers-backend/internal/repository"
)

// Matcher is the slice of the matching engine the dispatcher drives.
type Matcher interface {
	MatchNeedToVolunteers(ctx context.Context, need *db.Need, volunteers []db.Volunteer) error
	MatchVolunteerToNeeds(ctx context.Context, volunteer *db.Volunteer, needs []db.Need) error
}

type jobKind int

const (
	needChanged jobKind = iota
	volunteerChanged
)

func (k jobKind) String() string {
	if k == needChanged {
		return "need_changed"
	}
	return "volunteer_changed"
}

type job struct {
	id       string
	kind     jobKind
	entityID uint64
}

// Dispatcher runs matching jobs decoupled from whatever mutated the
// entity. Submissions are fire-and-forget: the caller never waits on a
// run and never sees its errors. Jobs execute on a small worker pool
// with their own background context and data-access session, so a run
// outlives the request that scheduled it.
type Dispatcher struct {
	logger     *slog.Logger
	matcher    Matcher
	volunteers *repository.VolunteerRepository
	needs      *repository.NeedRepository

	jobs    chan job
	wg      sync.WaitGroup
	workers int
	inline  bool

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher over the given engine. workers
// and queueSize bound the pool; inline switches to synchronous
// execution (a deployment choice for environments without background
// capacity, not the default contract).
func NewDispatcher(appCtx *app.AppContext, matcher Matcher, workers, queueSize int, inline bool) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Dispatcher{
		logger:     appCtx.Logger.With("component", "dispatcher"),
		matcher:    matcher,
		volunteers: repository.NewVolunteerRepository(appCtx.DB),
		needs:      repository.NewNeedRepository(appCtx.DB),
		jobs:       make(chan job, queueSize),
		workers:    workers,
		inline:     inline,
	}
}

// Start launches the worker pool. No-op in inline mode.
func (d *Dispatcher) Start() {
	if d.inline {
		return
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("dispatcher started", "workers", d.workers, "queue_size", cap(d.jobs))
}

// Stop drains queued jobs and waits for in-flight runs, bounded by ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	if d.inline {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnNeedChanged schedules a matching run for the need against the full
// volunteer listing. Safe to call any number of times: reruns replace,
// never duplicate, the need's match set.
func (d *Dispatcher) OnNeedChanged(needID uint64) {
	d.submit(job{id: uuid.NewString(), kind: needChanged, entityID: needID})
}

// OnVolunteerChanged schedules a matching run for the volunteer
// against the full need listing.
func (d *Dispatcher) OnVolunteerChanged(volunteerID uint64) {
	d.submit(job{id: uuid.NewString(), kind: volunteerChanged, entityID: volunteerID})
}

// SweepAll schedules a rematch for every need and every volunteer.
// Used at startup and as an administrative full refresh.
func (d *Dispatcher) SweepAll(ctx context.Context) error {
	needs, err := d.needs.List(ctx)
	if err != nil {
		return err
	}
	volunteers, err := d.volunteers.List(ctx)
	if err != nil {
		return err
	}

	for _, n := range needs {
		d.OnNeedChanged(n.ID)
	}
	for _, v := range volunteers {
		d.OnVolunteerChanged(v.ID)
	}

	d.logger.Info("sweep scheduled", "needs", len(needs), "volunteers", len(volunteers))
	return nil
}

func (d *Dispatcher) submit(j job) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher stopped, dropping job", "job_id", j.id, "kind", j.kind.String())
		return
	}

	if d.inline {
		d.mu.Unlock()
		d.run(j)
		return
	}

	select {
	case d.jobs <- j:
		d.mu.Unlock()
		d.logger.Debug("job queued", "job_id", j.id, "kind", j.kind.String(), "entity_id", j.entityID)
	default:
		d.mu.Unlock()
		// Dropped runs are re-derived on the entity's next mutation.
		d.logger.Warn("job queue full, dropping job", "job_id", j.id, "kind", j.kind.String(), "entity_id", j.entityID)
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

// run executes one matching job. Every failure ends here: the mutation
// that scheduled the run has long since been answered.
func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("matching run panicked", "job_id", j.id, "panic", r)
		}
	}()

	ctx := context.Background()
	log := d.logger.With("job_id", j.id, "kind", j.kind.String(), "entity_id", j.entityID)
	log.Debug("matching run started")

	var err error
	switch j.kind {
	case needChanged:
		err = d.runNeed(ctx, j.entityID)
	case volunteerChanged:
		err = d.runVolunteer(ctx, j.entityID)
	}

	if err != nil {
		log.Error("matching run failed", "err", err)
		return
	}
	log.Debug("matching run finished")
}

func (d *Dispatcher) runNeed(ctx context.Context, needID uint64) error {
	need, err := d.needs.Get(ctx, needID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			// Deleted between trigger and execution. Not an error.
			d.logger.Warn("need not found for matching, skipping", "need_id", needID)
			return nil
		}
		return err
	}

	volunteers, err := d.volunteers.List(ctx)
	if err != nil {
		return err
	}
	return d.matcher.MatchNeedToVolunteers(ctx, need, volunteers)
}

func (d *Dispatcher) runVolunteer(ctx context.Context, volunteerID uint64) error {
	volunteer, err := d.volunteers.Get(ctx, volunteerID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			d.logger.Warn("volunteer not found for matching, skipping", "volunteer_id", volunteerID)
			return nil
		}
		return err
	}

	needs, err := d.needs.List(ctx)
	if err != nil {
		return err
	}
	return d.matcher.MatchVolunteerToNeeds(ctx, volunteer, needs)
}
