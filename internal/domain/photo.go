package domain

import "time"

// PhotoList is the ordered list of scanned document names. Order reflects
// arrival/display order and names are unique within the list.
type PhotoList []string

// Contains reports whether name is present (exact match).
func (l PhotoList) Contains(name string) bool {
	for _, p := range l {
		if p == name {
			return true
		}
	}
	return false
}

// AppendUnique returns the list with name appended, or the list unchanged
// (and false) if name is already present.
func (l PhotoList) AppendUnique(name string) (PhotoList, bool) {
	if l.Contains(name) {
		return l, false
	}
	return append(l.Clone(), name), true
}

// Without returns a copy of the list with every occurrence of name removed.
func (l PhotoList) Without(name string) PhotoList {
	out := make(PhotoList, 0, len(l))
	for _, p := range l {
		if p != name {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns an independent copy.
func (l PhotoList) Clone() PhotoList {
	if l == nil {
		return nil
	}
	out := make(PhotoList, len(l))
	copy(out, l)
	return out
}

// Dedup returns a copy keeping only the first occurrence of each name.
func Dedup(names []string) PhotoList {
	seen := make(map[string]struct{}, len(names))
	out := make(PhotoList, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Notification is a transient, display-only message. Only one is active at a
// time; a newer notification replaces the current one.
type Notification struct {
	Text      string
	IsError   bool
	ShownAt   time.Time
	ExpiresAt time.Time
}

// Expired reports whether the notification should no longer be displayed.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// EditSession is an in-progress rename of the entry at Index. Name is the
// entry's name when the session opened; Index follows it when the list shifts.
type EditSession struct {
	Index int
	Name  string
	Draft string
}

// Snapshot is a read-only view of the sync engine state for rendering.
type Snapshot struct {
	Photos       PhotoList
	Edit         *EditSession
	Selected     string // empty when the viewer is closed
	Notification *Notification
	BatchMessage string
	Processing   bool
}
