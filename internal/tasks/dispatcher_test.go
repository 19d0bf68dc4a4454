package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/FGuerriero/get-volunteers-backend/internal/app"
	"github.com/FGuerriero/get-volunteers-backend/internal/db"
	"github.com/FGuerriero/get-volunteers-backend/internal/tasks"
)

type matcherCall struct {
	kind       string
	pivotID    uint64
	candidates int
}

type stubMatcher struct {
	mu    sync.Mutex
	calls []matcherCall
}

func (s *stubMatcher) MatchNeedToVolunteers(_ context.Context, need *db.Need, volunteers []db.Volunteer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, matcherCall{"need", need.ID, len(volunteers)})
	return nil
}

func (s *stubMatcher) MatchVolunteerToNeeds(_ context.Context, volunteer *db.Volunteer, needs []db.Need) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, matcherCall{"volunteer", volunteer.ID, len(needs)})
	return nil
}

func (s *stubMatcher) snapshot() []matcherCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]matcherCall(nil), s.calls...)
}

func setupDispatcher(t *testing.T, matcher tasks.Matcher, inline bool) (*tasks.Dispatcher, *app.AppContext) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.Volunteer{}, &db.Need{}, &db.Match{}))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, nil, log)

	d := tasks.NewDispatcher(appCtx, matcher, 2, 16, inline)
	return d, appCtx
}

func addVolunteer(t *testing.T, appCtx *app.AppContext, email string) *db.Volunteer {
	t.Helper()
	v := &db.Volunteer{Name: "V", Email: email, Password: "x", Active: true}
	require.NoError(t, appCtx.DB.Create(v).Error)
	return v
}

func addNeed(t *testing.T, appCtx *app.AppContext, title string, ownerID uint64) *db.Need {
	t.Helper()
	n := &db.Need{
		Title: title, Description: "d", NumVolunteersNeeded: 1,
		Format: db.FormatVirtual, ContactName: "C", ContactEmail: "c@test.com", OwnerID: ownerID,
	}
	require.NoError(t, appCtx.DB.Create(n).Error)
	return n
}

func TestOnNeedChangedInline(t *testing.T) {
	matcher := &stubMatcher{}
	d, appCtx := setupDispatcher(t, matcher, true)

	v1 := addVolunteer(t, appCtx, "a@test.com")
	addVolunteer(t, appCtx, "b@test.com")
	need := addNeed(t, appCtx, "Need", v1.ID)

	d.OnNeedChanged(need.ID)

	calls := matcher.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "need", calls[0].kind)
	assert.Equal(t, need.ID, calls[0].pivotID)
	// the complete current volunteer listing is passed along
	assert.Equal(t, 2, calls[0].candidates)
}

func TestOnVolunteerChangedInline(t *testing.T) {
	matcher := &stubMatcher{}
	d, appCtx := setupDispatcher(t, matcher, true)

	v := addVolunteer(t, appCtx, "a@test.com")
	addNeed(t, appCtx, "Need 1", v.ID)
	addNeed(t, appCtx, "Need 2", v.ID)

	d.OnVolunteerChanged(v.ID)

	calls := matcher.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "volunteer", calls[0].kind)
	assert.Equal(t, 2, calls[0].candidates)
}

func TestTriggerForDeletedEntityIsNoOp(t *testing.T) {
	matcher := &stubMatcher{}
	d, _ := setupDispatcher(t, matcher, true)

	d.OnNeedChanged(424242)
	d.OnVolunteerChanged(424242)

	assert.Empty(t, matcher.snapshot())
}

func TestAsyncRunCompletesAfterStop(t *testing.T) {
	matcher := &stubMatcher{}
	d, appCtx := setupDispatcher(t, matcher, false)

	v := addVolunteer(t, appCtx, "a@test.com")
	need := addNeed(t, appCtx, "Need", v.ID)

	d.Start()
	d.OnNeedChanged(need.ID)
	d.OnVolunteerChanged(v.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Len(t, matcher.snapshot(), 2)
}

func TestSubmitAfterStopIsDropped(t *testing.T) {
	matcher := &stubMatcher{}
	d, appCtx := setupDispatcher(t, matcher, false)

	v := addVolunteer(t, appCtx, "a@test.com")

	d.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	d.OnVolunteerChanged(v.ID) // must not panic on the closed queue

	assert.Empty(t, matcher.snapshot())
}

func TestSweepAllSchedulesEveryPivot(t *testing.T) {
	matcher := &stubMatcher{}
	d, appCtx := setupDispatcher(t, matcher, true)

	v1 := addVolunteer(t, appCtx, "a@test.com")
	v2 := addVolunteer(t, appCtx, "b@test.com")
	addNeed(t, appCtx, "Need 1", v1.ID)
	addNeed(t, appCtx, "Need 2", v2.ID)

	require.NoError(t, d.SweepAll(context.Background()))

	calls := matcher.snapshot()
	needRuns, volunteerRuns := 0, 0
	for _, c := range calls {
		switch c.kind {
		case "need":
			needRuns++
		case "volunteer":
			volunteerRuns++
		}
	}
	assert.Equal(t, 2, needRuns)
	assert.Equal(t, 2, volunteerRuns)
}
