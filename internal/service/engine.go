package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/scandesk/internal/domain"
	"golang.org/x/text/message"
)

// DefaultNotificationTTL is how long a notification stays visible
const DefaultNotificationTTL = 3 * time.Second

// viewerLinker resolves the full-size image URL for a photo (consumer-defined interface)
type viewerLinker interface {
	ViewerURL(name string) string
}

// EngineOption configures a SyncEngine
type EngineOption func(*SyncEngine)

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *SyncEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers the observer notified after every state change
func WithObserver(o domain.EngineObserver) EngineOption {
	return func(e *SyncEngine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithNotificationTTL overrides how long notifications stay visible
func WithNotificationTTL(d time.Duration) EngineOption {
	return func(e *SyncEngine) {
		if d > 0 {
			e.notifyTTL = d
		}
	}
}

// WithLanguage selects the catalog used for engine-generated messages
func WithLanguage(lang string) EngineOption {
	return func(e *SyncEngine) {
		e.printer = newPrinter(lang)
	}
}

// WithRenameRollback restores the old name when the server rejects a rename.
// Off by default: a failed rename keeps the operator's new name locally until
// the next refresh or push event.
func WithRenameRollback(enabled bool) EngineOption {
	return func(e *SyncEngine) {
		e.rollbackRename = enabled
	}
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) EngineOption {
	return func(e *SyncEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// SyncEngine owns the operator's photo list. It merges push events, applies
// operator actions against the server and keeps the local cache current.
//
// Network calls never run under the state lock, so operations may overlap;
// whichever finishes last wins.
type SyncEngine struct {
	repo        domain.PhotoRepository
	store       domain.PhotoStore
	logger      *slog.Logger
	observer    domain.EngineObserver
	printer     *message.Printer
	notifyTTL   time.Duration
	now         func() time.Time
	unsubscribe func()

	rollbackRename bool

	mu           sync.Mutex
	photos       domain.PhotoList
	edit         *domain.EditSession
	selected     string
	notification *domain.Notification
	notifySeq    uint64
	expiry       *time.Timer
	batchMessage string
	processing   bool
}

// NewSyncEngine hydrates the photo list from store and subscribes to events.
func NewSyncEngine(
	repo domain.PhotoRepository,
	store domain.PhotoStore,
	events domain.EventSource,
	opts ...EngineOption,
) *SyncEngine {
	e := &SyncEngine{
		repo:      repo,
		store:     store,
		logger:    slog.Default(),
		observer:  domain.NoOpObserver{},
		printer:   newPrinter(""),
		notifyTTL: DefaultNotificationTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if cached, ok := store.Load(); ok {
		e.photos = domain.Dedup(cached)
		e.logger.Info("hydrated photo list from cache", "count", len(e.photos))
	} else {
		e.photos = domain.PhotoList{}
	}

	if events != nil {
		e.unsubscribe = events.Subscribe(e)
	}
	return e
}

// Close detaches the engine from its event source and stops pending timers
func (e *SyncEngine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.mu.Lock()
	if e.expiry != nil {
		e.expiry.Stop()
	}
	e.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (e *SyncEngine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := domain.Snapshot{
		Photos:       e.photos.Clone(),
		Selected:     e.selected,
		BatchMessage: e.batchMessage,
		Processing:   e.processing,
	}
	if snap.Photos == nil {
		snap.Photos = domain.PhotoList{}
	}
	if e.edit != nil {
		edit := *e.edit
		snap.Edit = &edit
	}
	if e.notification != nil && !e.notification.Expired(e.now()) {
		n := *e.notification
		snap.Notification = &n
	}
	return snap
}

// ViewerURL returns the full-size image URL for name, or "" when the
// repository cannot link images.
func (e *SyncEngine) ViewerURL(name string) string {
	if l, ok := e.repo.(viewerLinker); ok {
		return l.ViewerURL(name)
	}
	return ""
}

// === Push events ===

// OnPhotoAdded appends name unless it is already listed. Duplicate delivery
// is a no-op.
func (e *SyncEngine) OnPhotoAdded(name string) {
	e.mu.Lock()
	photos, added := e.photos.AppendUnique(name)
	if !added {
		e.mu.Unlock()
		e.logger.Debug("ignoring duplicate photo event", "name", name)
		return
	}
	e.photos = photos
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
}

// OnBatchComplete records the capture backend's completion message
func (e *SyncEngine) OnBatchComplete(msg string) {
	e.mu.Lock()
	e.batchMessage = msg
	e.processing = false
	e.mu.Unlock()

	e.changed()
}

// OnProcessingStarted marks a capture run as in progress. Not every backend
// sends it.
func (e *SyncEngine) OnProcessingStarted() {
	e.mu.Lock()
	e.processing = true
	e.mu.Unlock()

	e.changed()
}

// === Local intents ===

// BeginEdit opens an edit session on the entry at index, replacing any
// existing session.
func (e *SyncEngine) BeginEdit(index int) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.photos) {
		e.mu.Unlock()
		return fmt.Errorf("begin edit at %d: %w", index, domain.ErrIndexOutOfRange)
	}
	e.edit = &domain.EditSession{Index: index, Name: e.photos[index], Draft: e.photos[index]}
	e.mu.Unlock()

	e.changed()
	return nil
}

// UpdateDraft replaces the draft name of the active edit session. Any string
// is accepted, including the empty string.
func (e *SyncEngine) UpdateDraft(text string) error {
	e.mu.Lock()
	if e.edit == nil {
		e.mu.Unlock()
		return domain.ErrNoEditSession
	}
	e.edit.Draft = text
	e.mu.Unlock()

	e.changed()
	return nil
}

// CancelEdit discards the active edit session, if any
func (e *SyncEngine) CancelEdit() {
	e.mu.Lock()
	hadEdit := e.edit != nil
	e.edit = nil
	e.mu.Unlock()

	if hadEdit {
		e.changed()
	}
}

// SelectPhoto shows name in the viewer
func (e *SyncEngine) SelectPhoto(name string) {
	e.mu.Lock()
	e.selected = name
	e.mu.Unlock()

	e.changed()
}

// CloseViewer clears the selected photo
func (e *SyncEngine) CloseViewer() {
	e.mu.Lock()
	e.selected = ""
	e.mu.Unlock()

	e.changed()
}

// === Server actions ===

// CommitEdit closes the edit session and, if the name changed, renames the
// photo optimistically before asking the server. A successful rename is
// followed by a full list refresh. A failed rename keeps the local name.
func (e *SyncEngine) CommitEdit(ctx context.Context) error {
	e.mu.Lock()
	if e.edit == nil {
		e.mu.Unlock()
		return domain.ErrNoEditSession
	}
	session := *e.edit
	e.edit = nil

	if session.Index >= len(e.photos) {
		e.mu.Unlock()
		e.changed()
		return fmt.Errorf("commit edit at %d: %w", session.Index, domain.ErrIndexOutOfRange)
	}
	if e.photos[session.Index] != session.Name {
		e.mu.Unlock()
		e.changed()
		return fmt.Errorf("commit edit of %q: %w", session.Name, domain.ErrPhotoNotFound)
	}

	oldName := e.photos[session.Index]
	if session.Draft == oldName {
		e.mu.Unlock()
		e.changed()
		return nil
	}

	txn := newRenameTxn(session.Index, oldName, session.Draft)
	e.photos = txn.apply(e.photos)
	e.persistLocked()
	e.mu.Unlock()
	e.changed()

	e.logger.Info("renaming photo", "old", oldName, "new", session.Draft)
	renamed := e.repo.Rename(ctx, oldName, session.Draft)
	if !renamed.OK() {
		e.logger.Error("rename failed", "error", renamed.Err, "old", oldName, "new", session.Draft)
		e.finishRename(txn, renamed, domain.ActionResult{})
		return fmt.Errorf("rename %q: %w", oldName, renamed.Err)
	}

	e.showNotification(renamed.Message, false)

	refreshed := e.repo.ListPhotos(ctx)
	if !refreshed.OK() {
		e.logger.Error("refresh after rename failed", "error", refreshed.Err)
	}
	e.finishRename(txn, renamed, refreshed)
	if !refreshed.OK() {
		return fmt.Errorf("refresh after rename: %w", refreshed.Err)
	}
	return nil
}

// finishRename applies the outcome of a rename to the engine state
func (e *SyncEngine) finishRename(txn renameTxn, renamed, refreshed domain.ActionResult) {
	e.mu.Lock()
	photos, ok := txn.resolve(e.photos, renamed, refreshed, e.rollbackRename)
	if ok {
		e.replaceLocked(photos)
	} else {
		if e.rollbackRename && !renamed.OK() {
			e.photos = photos
			e.reanchorEditLocked()
			e.persistLocked()
		}
		e.showLocked(e.printer.Sprintf(msgRenameFailed), true)
	}
	e.mu.Unlock()

	e.changed()
}

// DeleteOne deletes name on the server and, once confirmed, locally.
// Callers must have obtained the operator's confirmation.
func (e *SyncEngine) DeleteOne(ctx context.Context, name string) error {
	e.logger.Info("deleting photo", "name", name)
	res := e.repo.DeletePhoto(ctx, name)
	if !res.OK() {
		e.logger.Error("delete photo failed", "error", res.Err, "name", name)
		e.showNotification(e.printer.Sprintf(msgDeletePhotoFailed), true)
		return fmt.Errorf("delete %q: %w", name, res.Err)
	}

	e.mu.Lock()
	e.photos = e.photos.Without(name)
	if e.selected == name {
		e.selected = ""
	}
	e.reanchorEditLocked()
	e.persistLocked()
	e.showLocked(res.Message, false)
	e.mu.Unlock()

	e.changed()
	return nil
}

// DeleteAll deletes the whole batch. Callers must have obtained the
// operator's confirmation.
func (e *SyncEngine) DeleteAll(ctx context.Context) error {
	e.logger.Info("deleting all photos")
	return e.finishBatch(e.repo.DeleteAll(ctx), msgDeleteAllFailed, "delete all")
}

// ConfirmSubmit submits the batch. Callers must have obtained the operator's
// confirmation.
func (e *SyncEngine) ConfirmSubmit(ctx context.Context) error {
	e.logger.Info("submitting batch")
	return e.finishBatch(e.repo.Confirm(ctx), msgSubmitFailed, "submit")
}

// finishBatch clears all batch state after a successful delete-all or submit
func (e *SyncEngine) finishBatch(res domain.ActionResult, failMsg, op string) error {
	if !res.OK() {
		e.logger.Error(op+" failed", "error", res.Err)
		e.showNotification(e.printer.Sprintf(failMsg), true)
		return fmt.Errorf("%s: %w", op, res.Err)
	}

	e.mu.Lock()
	e.photos = domain.PhotoList{}
	e.edit = nil
	e.selected = ""
	e.batchMessage = ""
	e.processing = false
	if err := e.store.Clear(); err != nil {
		e.logger.Warn("failed to clear photo cache", "error", err)
	}
	e.showLocked(res.Message, false)
	e.mu.Unlock()

	e.changed()
	return nil
}

// Refresh replaces the photo list with the server's authoritative list
func (e *SyncEngine) Refresh(ctx context.Context) error {
	res := e.repo.ListPhotos(ctx)
	if !res.OK() {
		e.logger.Error("refresh failed", "error", res.Err)
		e.showNotification(e.printer.Sprintf(msgRefreshFailed), true)
		return fmt.Errorf("refresh: %w", res.Err)
	}

	e.mu.Lock()
	e.replaceLocked(res.Photos)
	e.mu.Unlock()

	e.changed()
	return nil
}

// === Internals ===

// replaceLocked installs an authoritative list, dropping duplicates
func (e *SyncEngine) replaceLocked(photos []string) {
	e.photos = domain.Dedup(photos)
	e.reanchorEditLocked()
	e.persistLocked()
}

// reanchorEditLocked moves the edit session to the current position of the
// photo it was opened on, or closes it when that photo is gone.
func (e *SyncEngine) reanchorEditLocked() {
	if e.edit == nil {
		return
	}
	if e.edit.Index < len(e.photos) && e.photos[e.edit.Index] == e.edit.Name {
		return
	}
	for i, name := range e.photos {
		if name == e.edit.Name {
			e.edit.Index = i
			return
		}
	}
	e.logger.Debug("closing edit session, photo no longer listed", "name", e.edit.Name)
	e.edit = nil
}

// persistLocked writes the list to the cache. Failures are logged only; the
// in-memory list stays authoritative for the session.
func (e *SyncEngine) persistLocked() {
	if err := e.store.Save(e.photos); err != nil {
		e.logger.Warn("failed to persist photo list", "error", err, "count", len(e.photos))
	}
}

func (e *SyncEngine) showNotification(text string, isErr bool) {
	e.mu.Lock()
	e.showLocked(text, isErr)
	e.mu.Unlock()

	e.changed()
}

// showLocked replaces the active notification. Empty text shows nothing.
func (e *SyncEngine) showLocked(text string, isErr bool) {
	if text == "" {
		return
	}
	now := e.now()
	e.notifySeq++
	seq := e.notifySeq
	e.notification = &domain.Notification{
		Text:      text,
		IsError:   isErr,
		ShownAt:   now,
		ExpiresAt: now.Add(e.notifyTTL),
	}

	if e.expiry != nil {
		e.expiry.Stop()
	}
	e.expiry = time.AfterFunc(e.notifyTTL, func() { e.expireNotification(seq) })
}

// expireNotification clears the notification if it has not been replaced
func (e *SyncEngine) expireNotification(seq uint64) {
	e.mu.Lock()
	if e.notifySeq != seq || e.notification == nil {
		e.mu.Unlock()
		return
	}
	e.notification = nil
	e.mu.Unlock()

	e.changed()
}

func (e *SyncEngine) changed() {
	e.observer.OnEngineChanged()
}
