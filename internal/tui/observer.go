package tui

// ChannelObserver adapts domain.EngineObserver to a channel for Bubble Tea.
// Change signals coalesce: the UI re-reads the whole snapshot on each one.
type ChannelObserver struct {
	ch chan struct{}
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan struct{}, 1)}
}

// OnEngineChanged signals the UI (non-blocking if a signal is already pending).
func (o *ChannelObserver) OnEngineChanged() {
	select {
	case o.ch <- struct{}{}:
	default:
	}
}

// Changes returns the signal channel
func (o *ChannelObserver) Changes() <-chan struct{} {
	return o.ch
}
