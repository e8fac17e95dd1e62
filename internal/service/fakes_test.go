package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/aryan-madhavi/healthshare/internal/repository"
)

// fakeClock is a settable clock for deterministic expiry math.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeRecordRepo is a map-backed RecordRepository.
type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.Record
}

var _ repository.RecordRepository = (*fakeRecordRepo)(nil)

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]model.Record)}
}

func (f *fakeRecordRepo) Create(_ context.Context, r *model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = *r
	return nil
}

func (f *fakeRecordRepo) Get(_ context.Context, id uuid.UUID) (*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	return &r, nil
}

func (f *fakeRecordRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Record
	for _, r := range f.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) SetRevoked(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return errs.ErrRecordNotFound
	}
	r.Revoked = true
	f.records[id] = r
	return nil
}

// fakeGrantRepo is a map-backed GrantRepository. It holds a reference to the
// record repo so ListByOwner can join on ownership like the SQL impl does.
type fakeGrantRepo struct {
	mu      sync.Mutex
	grants  map[uuid.UUID]model.Grant
	records *fakeRecordRepo
}

var _ repository.GrantRepository = (*fakeGrantRepo)(nil)

func newFakeGrantRepo(records *fakeRecordRepo) *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[uuid.UUID]model.Grant), records: records}
}

func (f *fakeGrantRepo) Create(_ context.Context, g *model.Grant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants[g.ID] = *g
	return nil
}

func (f *fakeGrantRepo) Get(_ context.Context, id uuid.UUID) (*model.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.grants[id]
	if !ok {
		return nil, errs.ErrGrantNotFound
	}
	return &g, nil
}

func (f *fakeGrantRepo) Update(_ context.Context, g *model.Grant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grants[g.ID]; !ok {
		return errs.ErrGrantNotFound
	}
	f.grants[g.ID] = *g
	return nil
}

func (f *fakeGrantRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]model.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Grant
	for _, g := range f.grants {
		if g.RecordID == recordID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID) ([]model.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Grant
	for _, g := range f.grants {
		if g.RecipientID == recipientID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Grant, error) {
	recs, err := f.records.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(recs))
	for _, r := range recs {
		owned[r.ID] = true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Grant
	for _, g := range f.grants {
		if owned[g.RecordID] {
			out = append(out, g)
		}
	}
	return out, nil
}

// fakeAuditRepo is an append-only slice.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

var _ repository.AuditRepository = (*fakeAuditRepo)(nil)

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (f *fakeAuditRepo) Append(_ context.Context, e *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAuditRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range f.entries {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) ListByActor(_ context.Context, actorID uuid.UUID) ([]model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range f.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) countAction(a model.AuditAction) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Action == a {
			n++
		}
	}
	return n
}

// testEnv bundles a fully wired engine over fakes.
type testEnv struct {
	engine    *GrantServiceImpl
	emergency *EmergencyServiceImpl
	recordSvc *RecordServiceImpl
	grants    *fakeGrantRepo
	records   *fakeRecordRepo
	audit     *fakeAuditRepo
	clock     *fakeClock
}

func newTestEnv(t0 time.Time) *testEnv {
	records := newFakeRecordRepo()
	grants := newFakeGrantRepo(records)
	audit := newFakeAuditRepo()
	clk := newFakeClock(t0)
	engine := NewGrantService(grants, records, audit, clk)
	return &testEnv{
		engine:    engine,
		emergency: NewEmergencyService(engine),
		recordSvc: NewRecordService(records, engine, clk),
		grants:    grants,
		records:   records,
		audit:     audit,
		clock:     clk,
	}
}

// addRecord seeds a record directly in the fake store.
func (e *testEnv) addRecord(ownerID uuid.UUID) uuid.UUID {
	id := uuid.Must(uuid.NewV4())
	e.records.records[id] = model.Record{
		ID:        id,
		OwnerID:   ownerID,
		Type:      model.RecordLabReport,
		Title:     "blood panel",
		CreatedAt: e.clock.Now(),
	}
	return id
}
