package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/scandesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Fakes ===

type fakeRepo struct {
	mu sync.Mutex

	list    domain.ActionResult
	rename  domain.ActionResult
	del     domain.ActionResult
	delAll  domain.ActionResult
	confirm domain.ActionResult

	calls   []string
	renames [][2]string
}

func (r *fakeRepo) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *fakeRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRepo) ListPhotos(ctx context.Context) domain.ActionResult {
	r.record("list")
	return r.list
}

func (r *fakeRepo) Rename(ctx context.Context, oldName, newName string) domain.ActionResult {
	r.record("rename")
	r.mu.Lock()
	r.renames = append(r.renames, [2]string{oldName, newName})
	r.mu.Unlock()
	return r.rename
}

func (r *fakeRepo) DeletePhoto(ctx context.Context, name string) domain.ActionResult {
	r.record("delete:" + name)
	return r.del
}

func (r *fakeRepo) DeleteAll(ctx context.Context) domain.ActionResult {
	r.record("deleteAll")
	return r.delAll
}

func (r *fakeRepo) Confirm(ctx context.Context) domain.ActionResult {
	r.record("confirm")
	return r.confirm
}

// linkingRepo adds image links to fakeRepo
type linkingRepo struct{ *fakeRepo }

func (linkingRepo) ViewerURL(name string) string { return "http://scanner/" + name }

type fakeStore struct {
	mu       sync.Mutex
	photos   []string
	present  bool
	saveErr  error
	saves    int
	clears   int
	clearErr error
}

func (s *fakeStore) Load() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil, false
	}
	return append([]string(nil), s.photos...), true
}

func (s *fakeStore) Save(photos []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.photos = append([]string(nil), photos...)
	s.present = true
	return nil
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.photos = nil
	s.present = false
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakeEvents struct {
	mu       sync.Mutex
	handlers []domain.EventHandler
}

func (f *fakeEvents) Subscribe(h domain.EventHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, h)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handlers = nil
	}
}

func (f *fakeEvents) photo(name string) {
	f.mu.Lock()
	hs := append([]domain.EventHandler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range hs {
		h.OnPhotoAdded(name)
	}
}

func (f *fakeEvents) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type countingObserver struct{ n atomic.Int32 }

func (o *countingObserver) OnEngineChanged() { o.n.Add(1) }

type fixture struct {
	repo   *fakeRepo
	store  *fakeStore
	events *fakeEvents
	engine *SyncEngine
}

func newFixture(t *testing.T, cached []string, opts ...EngineOption) *fixture {
	t.Helper()
	f := &fixture{
		repo:   &fakeRepo{},
		store:  &fakeStore{photos: cached, present: cached != nil},
		events: &fakeEvents{},
	}
	opts = append([]EngineOption{WithNotificationTTL(time.Hour)}, opts...)
	f.engine = NewSyncEngine(f.repo, f.store, f.events, opts...)
	t.Cleanup(f.engine.Close)
	return f
}

var errOffline = errors.New("dial tcp: connection refused")

// === Hydration and push events ===

func TestEngineHydratesFromCache(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg", "a.jpg"})
	assert.Equal(t, domain.PhotoList{"a.jpg", "b.jpg"}, f.engine.Snapshot().Photos)
	assert.Equal(t, 1, f.events.subscribers())
}

func TestEngineHydratesEmptyWhenCacheAbsent(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.engine.Snapshot()
	assert.NotNil(t, snap.Photos)
	assert.Empty(t, snap.Photos)
	assert.Nil(t, snap.Edit)
	assert.Nil(t, snap.Notification)
}

func TestEngineCloseUnsubscribes(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.Close()
	assert.Equal(t, 0, f.events.subscribers())
}

func TestOnPhotoAddedKeepsFirstSeenOrder(t *testing.T) {
	f := newFixture(t, nil)
	for _, name := range []string{"c.jpg", "a.jpg", "c.jpg", "b.jpg", "a.jpg", "c.jpg"} {
		f.events.photo(name)
	}

	assert.Equal(t, domain.PhotoList{"c.jpg", "a.jpg", "b.jpg"}, f.engine.Snapshot().Photos)
	cached, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, cached)
}

func TestOnPhotoAddedIsIdempotent(t *testing.T) {
	once := newFixture(t, nil)
	once.engine.OnPhotoAdded("a.jpg")

	twice := newFixture(t, nil)
	twice.engine.OnPhotoAdded("a.jpg")
	twice.engine.OnPhotoAdded("a.jpg")

	assert.Equal(t, domain.PhotoList{"a.jpg"}, twice.engine.Snapshot().Photos)
	assert.Equal(t, once.engine.Snapshot().Photos, twice.engine.Snapshot().Photos)
	assert.Equal(t, 1, twice.store.saves, "duplicate delivery must not rewrite the cache")
	assert.Nil(t, twice.engine.Snapshot().Notification, "push events are silent")
}

func TestBatchEvents(t *testing.T) {
	f := newFixture(t, nil)

	f.engine.OnProcessingStarted()
	assert.True(t, f.engine.Snapshot().Processing)

	f.engine.OnBatchComplete("Batch ready")
	snap := f.engine.Snapshot()
	assert.False(t, snap.Processing)
	assert.Equal(t, "Batch ready", snap.BatchMessage)

	// Completion without a preceding start is fine.
	f.engine.OnBatchComplete("Second batch")
	assert.Equal(t, "Second batch", f.engine.Snapshot().BatchMessage)
}

func TestCachePersistFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.store.saveErr = errors.New("disk full")

	f.engine.OnPhotoAdded("a.jpg")
	assert.Equal(t, domain.PhotoList{"a.jpg"}, f.engine.Snapshot().Photos)
}

// === Edit session ===

func TestBeginEditBounds(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})

	assert.ErrorIs(t, f.engine.BeginEdit(-1), domain.ErrIndexOutOfRange)
	assert.ErrorIs(t, f.engine.BeginEdit(1), domain.ErrIndexOutOfRange)
	assert.Nil(t, f.engine.Snapshot().Edit)

	require.NoError(t, f.engine.BeginEdit(0))
	assert.Equal(t, &domain.EditSession{Index: 0, Name: "a.jpg", Draft: "a.jpg"}, f.engine.Snapshot().Edit)
}

func TestBeginEditReplacesSession(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("changed"))
	require.NoError(t, f.engine.BeginEdit(1))

	assert.Equal(t, &domain.EditSession{Index: 1, Name: "b.jpg", Draft: "b.jpg"}, f.engine.Snapshot().Edit)
}

func TestUpdateDraftRequiresSession(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	assert.ErrorIs(t, f.engine.UpdateDraft("x"), domain.ErrNoEditSession)
	assert.ErrorIs(t, f.engine.CommitEdit(context.Background()), domain.ErrNoEditSession)
}

func TestCommitEditNoopNeverCallsServer(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("a.jpg"))

	require.NoError(t, f.engine.CommitEdit(context.Background()))
	assert.Empty(t, f.repo.Calls())
	assert.Nil(t, f.engine.Snapshot().Edit)
}

func TestCommitEditRenameScenario(t *testing.T) {
	f := newFixture(t, []string{"scan1.jpg"})
	f.repo.rename = domain.ActionResult{Message: "File renamed"}
	f.repo.list = domain.ActionResult{Photos: []string{"scan1_final.jpg"}}

	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("scan1_final.jpg"))
	require.NoError(t, f.engine.CommitEdit(context.Background()))

	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"scan1_final.jpg"}, snap.Photos)
	assert.Nil(t, snap.Edit)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "File renamed", snap.Notification.Text)
	assert.False(t, snap.Notification.IsError)

	assert.Equal(t, []string{"rename", "list"}, f.repo.Calls())
	assert.Equal(t, [][2]string{{"scan1.jpg", "scan1_final.jpg"}}, f.repo.renames)

	cached, _ := f.store.Load()
	assert.Equal(t, []string{"scan1_final.jpg"}, cached)
}

func TestCommitEditAdoptsServerList(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.rename = domain.ActionResult{Message: "ok"}
	// The server normalized the name and knows about a photo we missed.
	f.repo.list = domain.ActionResult{Photos: []string{"a.jpg", "b-final.jpg", "c.jpg", "c.jpg"}}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.UpdateDraft("B Final.jpg"))
	require.NoError(t, f.engine.CommitEdit(context.Background()))

	assert.Equal(t, domain.PhotoList{"a.jpg", "b-final.jpg", "c.jpg"}, f.engine.Snapshot().Photos)
}

func TestCommitEditFailedRenameKeepsOptimisticName(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.rename = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.UpdateDraft("renamed.jpg"))
	err := f.engine.CommitEdit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errOffline)

	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"a.jpg", "renamed.jpg"}, snap.Photos)
	require.NotNil(t, snap.Notification)
	assert.True(t, snap.Notification.IsError)
	assert.Equal(t, msgRenameFailed, snap.Notification.Text)
	assert.Equal(t, []string{"rename"}, f.repo.Calls(), "no refresh after a failed rename")

	cached, _ := f.store.Load()
	assert.Equal(t, []string{"a.jpg", "renamed.jpg"}, cached)
}

func TestCommitEditFailedRenameWithRollback(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"}, WithRenameRollback(true))
	f.repo.rename = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.UpdateDraft("renamed.jpg"))
	require.Error(t, f.engine.CommitEdit(context.Background()))

	assert.Equal(t, domain.PhotoList{"a.jpg", "b.jpg"}, f.engine.Snapshot().Photos)
}

func TestCommitEditRefreshFailureReplacesSuccessMessage(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	f.repo.rename = domain.ActionResult{Message: "File renamed"}
	f.repo.list = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("b.jpg"))
	require.Error(t, f.engine.CommitEdit(context.Background()))

	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"b.jpg"}, snap.Photos)
	require.NotNil(t, snap.Notification)
	assert.True(t, snap.Notification.IsError)
}

func TestCommitEditAllowsEmptyName(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	f.repo.rename = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft(""))
	_ = f.engine.CommitEdit(context.Background())

	assert.Equal(t, [][2]string{{"a.jpg", ""}}, f.repo.renames)
	assert.Equal(t, domain.PhotoList{""}, f.engine.Snapshot().Photos)
}

func TestCommitEditOntoExistingNameKeepsListUnique(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg", "c.jpg"})
	f.repo.rename = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(2))
	require.NoError(t, f.engine.UpdateDraft("a.jpg"))
	_ = f.engine.CommitEdit(context.Background())

	// The renamed entry keeps its slot; the older a.jpg is dropped.
	assert.Equal(t, domain.PhotoList{"b.jpg", "a.jpg"}, f.engine.Snapshot().Photos)
}

func TestCommitEditOntoExistingNameRollbackRestoresOldNameOnly(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg", "c.jpg"}, WithRenameRollback(true))
	f.repo.rename = domain.ActionResult{Err: errOffline}

	require.NoError(t, f.engine.BeginEdit(2))
	require.NoError(t, f.engine.UpdateDraft("a.jpg"))
	require.Error(t, f.engine.CommitEdit(context.Background()))

	// The dropped a.jpg comes back with the next refresh, not on rollback.
	assert.Equal(t, domain.PhotoList{"b.jpg", "c.jpg"}, f.engine.Snapshot().Photos)
}

func TestCommitEditStaleIndex(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.list = domain.ActionResult{Photos: []string{"a.jpg"}}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.UpdateDraft("x.jpg"))

	// Shrinking the list drops the now-invalid session.
	require.NoError(t, f.engine.Refresh(context.Background()))
	assert.Nil(t, f.engine.Snapshot().Edit)
	assert.ErrorIs(t, f.engine.CommitEdit(context.Background()), domain.ErrNoEditSession)
	assert.Equal(t, []string{"list"}, f.repo.Calls())
}

func TestEditSessionFollowsPhotoWhenDeleteShiftsList(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg", "c.jpg"})
	f.repo.del = domain.ActionResult{Message: "Photo deleted"}
	f.repo.rename = domain.ActionResult{Message: "File renamed"}
	f.repo.list = domain.ActionResult{Photos: []string{"b_final.jpg", "c.jpg"}}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.UpdateDraft("b_final.jpg"))
	require.NoError(t, f.engine.DeleteOne(context.Background(), "a.jpg"))

	assert.Equal(t, &domain.EditSession{Index: 0, Name: "b.jpg", Draft: "b_final.jpg"}, f.engine.Snapshot().Edit)

	require.NoError(t, f.engine.CommitEdit(context.Background()))
	assert.Equal(t, [][2]string{{"b.jpg", "b_final.jpg"}}, f.repo.renames)
	assert.Equal(t, domain.PhotoList{"b_final.jpg", "c.jpg"}, f.engine.Snapshot().Photos)
}

func TestEditSessionFollowsPhotoAcrossRefresh(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.list = domain.ActionResult{Photos: []string{"new.jpg", "b.jpg", "a.jpg"}}

	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("a2.jpg"))
	require.NoError(t, f.engine.Refresh(context.Background()))

	assert.Equal(t, &domain.EditSession{Index: 2, Name: "a.jpg", Draft: "a2.jpg"}, f.engine.Snapshot().Edit)
}

func TestEditSessionClosedWhenPhotoRefreshedAway(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg", "c.jpg"})
	f.repo.list = domain.ActionResult{Photos: []string{"a.jpg", "c.jpg", "d.jpg"}}

	require.NoError(t, f.engine.BeginEdit(1))
	require.NoError(t, f.engine.Refresh(context.Background()))

	assert.Nil(t, f.engine.Snapshot().Edit, "index 1 is still in range but now holds another photo")
	assert.ErrorIs(t, f.engine.CommitEdit(context.Background()), domain.ErrNoEditSession)
	assert.Empty(t, f.repo.renames)
}

func TestCommitEditRefusesSessionOnAnotherPhoto(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	require.NoError(t, f.engine.BeginEdit(0))
	require.NoError(t, f.engine.UpdateDraft("x.jpg"))

	f.engine.mu.Lock()
	f.engine.photos = domain.PhotoList{"b.jpg", "a.jpg"}
	f.engine.mu.Unlock()

	err := f.engine.CommitEdit(context.Background())
	assert.ErrorIs(t, err, domain.ErrPhotoNotFound)
	assert.Empty(t, f.repo.renames)
	assert.Nil(t, f.engine.Snapshot().Edit)
}

// === Destructive actions ===

func TestDeleteOneSuccess(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.del = domain.ActionResult{Message: "Photo deleted"}
	f.engine.SelectPhoto("a.jpg")

	require.NoError(t, f.engine.DeleteOne(context.Background(), "a.jpg"))

	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"b.jpg"}, snap.Photos)
	assert.Empty(t, snap.Selected)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "Photo deleted", snap.Notification.Text)

	cached, _ := f.store.Load()
	assert.Equal(t, []string{"b.jpg"}, cached)
}

func TestDeleteOneFailureLeavesListUnchanged(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	f.repo.del = domain.ActionResult{Err: errOffline}
	obs := &countingObserver{}
	f.engine.observer = obs

	err := f.engine.DeleteOne(context.Background(), "a.jpg")
	require.ErrorIs(t, err, errOffline)

	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"a.jpg"}, snap.Photos)
	require.NotNil(t, snap.Notification)
	assert.True(t, snap.Notification.IsError)
	assert.Equal(t, msgDeletePhotoFailed, snap.Notification.Text)
	assert.Equal(t, int32(1), obs.n.Load(), "exactly one notification change")
}

func TestDeleteAllAndSubmit(t *testing.T) {
	for _, tc := range []struct {
		name string
		run  func(f *fixture) error
		set  func(r *fakeRepo, res domain.ActionResult)
		fail string
	}{
		{
			name: "delete all",
			run:  func(f *fixture) error { return f.engine.DeleteAll(context.Background()) },
			set:  func(r *fakeRepo, res domain.ActionResult) { r.delAll = res },
			fail: msgDeleteAllFailed,
		},
		{
			name: "submit",
			run:  func(f *fixture) error { return f.engine.ConfirmSubmit(context.Background()) },
			set:  func(r *fakeRepo, res domain.ActionResult) { r.confirm = res },
			fail: msgSubmitFailed,
		},
	} {
		t.Run(tc.name+" success", func(t *testing.T) {
			f := newFixture(t, []string{"a.jpg", "b.jpg"})
			tc.set(f.repo, domain.ActionResult{Message: "Done"})
			f.engine.OnBatchComplete("Batch ready")
			require.NoError(t, f.engine.BeginEdit(0))

			require.NoError(t, tc.run(f))

			snap := f.engine.Snapshot()
			assert.Empty(t, snap.Photos)
			assert.Nil(t, snap.Edit)
			assert.Empty(t, snap.BatchMessage)
			require.NotNil(t, snap.Notification)
			assert.Equal(t, "Done", snap.Notification.Text)

			cached, ok := f.store.Load()
			assert.False(t, ok)
			assert.Empty(t, cached)
		})

		t.Run(tc.name+" failure", func(t *testing.T) {
			f := newFixture(t, []string{"a.jpg"})
			tc.set(f.repo, domain.ActionResult{Err: errOffline})
			f.engine.OnBatchComplete("Batch ready")

			require.Error(t, tc.run(f))

			snap := f.engine.Snapshot()
			assert.Equal(t, domain.PhotoList{"a.jpg"}, snap.Photos)
			assert.Equal(t, "Batch ready", snap.BatchMessage)
			require.NotNil(t, snap.Notification)
			assert.True(t, snap.Notification.IsError)
			assert.Equal(t, tc.fail, snap.Notification.Text)
			assert.Equal(t, 0, f.store.clears)
		})
	}
}

// === Refresh, viewer, notifications ===

func TestRefresh(t *testing.T) {
	f := newFixture(t, []string{"stale.jpg"})
	f.repo.list = domain.ActionResult{Photos: []string{"x.jpg", "y.jpg", "x.jpg"}}

	require.NoError(t, f.engine.Refresh(context.Background()))
	assert.Equal(t, domain.PhotoList{"x.jpg", "y.jpg"}, f.engine.Snapshot().Photos)
	assert.Nil(t, f.engine.Snapshot().Notification)

	f.repo.list = domain.ActionResult{Err: errOffline}
	require.Error(t, f.engine.Refresh(context.Background()))
	snap := f.engine.Snapshot()
	assert.Equal(t, domain.PhotoList{"x.jpg", "y.jpg"}, snap.Photos)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, msgRefreshFailed, snap.Notification.Text)
}

func TestViewerToggles(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	f.engine.SelectPhoto("a.jpg")
	assert.Equal(t, "a.jpg", f.engine.Snapshot().Selected)

	f.engine.SelectPhoto("b.jpg")
	assert.Equal(t, "b.jpg", f.engine.Snapshot().Selected)

	f.engine.CloseViewer()
	assert.Empty(t, f.engine.Snapshot().Selected)
	assert.Empty(t, f.repo.Calls())
	assert.Equal(t, 0, f.store.saves)
}

func TestViewerURL(t *testing.T) {
	f := newFixture(t, nil)
	assert.Empty(t, f.engine.ViewerURL("a.jpg"))

	linked := NewSyncEngine(linkingRepo{&fakeRepo{}}, &fakeStore{}, nil)
	defer linked.Close()
	assert.Equal(t, "http://scanner/a.jpg", linked.ViewerURL("a.jpg"))
}

func TestNotificationNewestWins(t *testing.T) {
	f := newFixture(t, []string{"a.jpg", "b.jpg"})
	f.repo.del = domain.ActionResult{Message: "first"}
	require.NoError(t, f.engine.DeleteOne(context.Background(), "a.jpg"))

	f.repo.del = domain.ActionResult{Message: "second"}
	require.NoError(t, f.engine.DeleteOne(context.Background(), "b.jpg"))

	assert.Equal(t, "second", f.engine.Snapshot().Notification.Text)
}

func TestNotificationExpiresWithClock(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	f := newFixture(t, []string{"a.jpg"}, WithClock(clock), WithNotificationTTL(3*time.Second))
	f.repo.del = domain.ActionResult{Message: "deleted"}
	require.NoError(t, f.engine.DeleteOne(context.Background(), "a.jpg"))
	require.NotNil(t, f.engine.Snapshot().Notification)

	mu.Lock()
	now = now.Add(3 * time.Second)
	mu.Unlock()
	assert.Nil(t, f.engine.Snapshot().Notification)
}

func TestNotificationTimerClearsAndNotifies(t *testing.T) {
	obs := &countingObserver{}
	f := newFixture(t, []string{"a.jpg"}, WithObserver(obs), WithNotificationTTL(20*time.Millisecond))
	f.repo.del = domain.ActionResult{Message: "deleted"}

	require.NoError(t, f.engine.DeleteOne(context.Background(), "a.jpg"))
	afterAction := obs.n.Load()

	require.Eventually(t, func() bool {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.notification == nil
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return obs.n.Load() > afterAction }, time.Second, 5*time.Millisecond)
}

func TestEngineUsesHebrewCatalog(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"}, WithLanguage("he"))
	f.repo.del = domain.ActionResult{Err: errOffline}

	_ = f.engine.DeleteOne(context.Background(), "a.jpg")
	assert.Equal(t, "שגיאה במחיקת תמונה", f.engine.Snapshot().Notification.Text)
}

func TestWriteManifest(t *testing.T) {
	f := newFixture(t, []string{"scan1.jpg", "scan2.jpg"})

	var buf bytes.Buffer
	require.NoError(t, f.engine.WriteManifest(&buf))
	out := buf.String()
	assert.Contains(t, out, "Scan list")
	assert.Contains(t, out, "scan1.jpg")
	assert.Contains(t, out, "scan2.jpg")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("scan1.jpg")), bytes.Index(buf.Bytes(), []byte("scan2.jpg")))
}

func TestOverlappingOperationsLastWriterWins(t *testing.T) {
	f := newFixture(t, []string{"a.jpg"})
	f.repo.list = domain.ActionResult{Photos: []string{"server.jpg"}}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.engine.Refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			f.events.photo("push.jpg")
		}()
	}
	wg.Wait()

	photos := f.engine.Snapshot().Photos
	assert.Equal(t, domain.Dedup(photos), photos, "list stays unique under overlap")
	assert.Contains(t, photos, "server.jpg")
}
