package tui

// Message types for the TUI

// EngineChangedMsg signals that the engine state changed and the snapshot
// should be re-read
type EngineChangedMsg struct{}

// ActionDoneMsg reports the end of a server action. The engine has already
// surfaced any failure as a notification.
type ActionDoneMsg struct {
	Op  string
	Err error
}

// ManifestWrittenMsg reports the result of printing the photo list
type ManifestWrittenMsg struct {
	Path string
	Err  error
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
