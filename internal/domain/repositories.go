package domain

import (
	"context"
)

// ActionResult is the outcome of a single request against the scan server.
// Failures are carried in Err rather than returned separately so callers
// always get a tagged result.
type ActionResult struct {
	Message string   // server-provided message, shown to the operator
	Photos  []string // populated by ListPhotos only
	Err     error
}

// OK reports whether the request succeeded.
func (r ActionResult) OK() bool {
	return r.Err == nil
}

// PhotoRepository provides the request/response operations of the scan server
type PhotoRepository interface {
	// ListPhotos fetches the authoritative photo list
	ListPhotos(ctx context.Context) ActionResult

	// Rename renames a single photo on the server
	Rename(ctx context.Context, oldName, newName string) ActionResult

	// DeletePhoto removes a single photo
	DeletePhoto(ctx context.Context, name string) ActionResult

	// DeleteAll removes every photo in the current batch
	DeleteAll(ctx context.Context) ActionResult

	// Confirm submits the current batch
	Confirm(ctx context.Context) ActionResult
}

// EventHandler receives push events from the capture backend.
type EventHandler interface {
	OnPhotoAdded(name string)
	OnBatchComplete(message string)
	OnProcessingStarted()
}

// EventSource delivers push events to subscribed handlers.
type EventSource interface {
	// Subscribe registers h and returns a function that removes it
	Subscribe(h EventHandler) (unsubscribe func())
}

// EngineObserver is notified whenever the engine state changes.
type EngineObserver interface {
	OnEngineChanged()
}

// NoOpObserver discards change notifications (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnEngineChanged() {}
