package service

import "github.com/mmcdole/scandesk/internal/domain"

// renameTxn is a two-phase optimistic rename. apply writes the new name
// locally before the server answers; resolve installs the server's list once
// the rename and the follow-up refresh both succeed.
type renameTxn struct {
	index   int
	oldName string
	newName string
}

func newRenameTxn(index int, oldName, newName string) renameTxn {
	return renameTxn{index: index, oldName: oldName, newName: newName}
}

// apply returns list with the entry at index renamed. Any other entry that
// already carries the new name is dropped so names stay unique.
func (t renameTxn) apply(list domain.PhotoList) domain.PhotoList {
	out := make(domain.PhotoList, 0, len(list))
	for i, name := range list {
		switch {
		case i == t.index:
			out = append(out, t.newName)
		case name == t.newName:
		default:
			out = append(out, name)
		}
	}
	return out
}

// revert restores the old name on the entry carrying the new name, if the
// entry is still present.
func (t renameTxn) revert(list domain.PhotoList) domain.PhotoList {
	out := list.Clone()
	for i, name := range out {
		if name == t.newName {
			if !out.Contains(t.oldName) {
				out[i] = t.oldName
			}
			break
		}
	}
	return out
}

// resolve decides the list after the server round trips. ok is false when
// either request failed; the returned list is then current, or current with
// the rename reverted when rollback is enabled.
func (t renameTxn) resolve(current domain.PhotoList, renamed, refreshed domain.ActionResult, rollback bool) (domain.PhotoList, bool) {
	if !renamed.OK() {
		if rollback {
			return t.revert(current), false
		}
		return current, false
	}
	if !refreshed.OK() {
		return current, false
	}
	return domain.Dedup(refreshed.Photos), true
}
