package engine

import (
	"bytes"
	"encoding/json"

	"posync/internal/domain"
	"posync/internal/infra"
)

// reconcileSnapshot builds the state that follows a full snapshot.
// The snapshot replaces everything except pending records: those absent from
// the snapshot are kept in front, those present keep their local copy.
func reconcileSnapshot[D domain.Record](current []D, pending map[string]*pendingWrite, snapshot []D) []D {
	if len(pending) == 0 {
		return snapshot
	}
	inSnapshot := make(map[string]bool, len(snapshot))
	for _, d := range snapshot {
		inSnapshot[d.RecordID()] = true
	}

	next := make([]D, 0, len(snapshot)+len(pending))
	local := make(map[string]D, len(pending))
	for _, d := range current {
		id := d.RecordID()
		if _, ok := pending[id]; !ok {
			continue
		}
		if inSnapshot[id] {
			local[id] = d
		} else {
			next = append(next, d)
		}
	}
	for _, d := range snapshot {
		if l, ok := local[d.RecordID()]; ok {
			next = append(next, l)
			continue
		}
		next = append(next, d)
	}
	return next
}

// applyUpsertEvent applies an INSERT or UPDATE carrying rec.
func applyUpsertEvent[D domain.Record](current []D, pending map[string]*pendingWrite, typ infra.EventType, rec D) ([]D, bool) {
	id := rec.RecordID()
	idx := indexOf(current, id)

	if idx < 0 {
		// unknown id: an UPDATE for a missed INSERT converges the same way
		return prepend(current, rec), true
	}
	if typ == infra.EventInsert {
		return current, false
	}
	if _, ok := pending[id]; ok {
		return current, false
	}
	if rec.RecordRevision() < current[idx].RecordRevision() {
		// out-of-order delivery
		return current, false
	}
	if sameContent(current[idx], rec) {
		return current, false
	}
	next := make([]D, len(current))
	copy(next, current)
	next[idx] = rec
	return next, true
}

// removeRecord deletes id unconditionally.
func removeRecord[D domain.Record](current []D, id string) ([]D, bool) {
	idx := indexOf(current, id)
	if idx < 0 {
		return current, false
	}
	next := make([]D, 0, len(current)-1)
	next = append(next, current[:idx]...)
	return append(next, current[idx+1:]...), true
}

// putRecord replaces id in place or prepends it.
func putRecord[D domain.Record](current []D, rec D) []D {
	idx := indexOf(current, rec.RecordID())
	if idx < 0 {
		return prepend(current, rec)
	}
	next := make([]D, len(current))
	copy(next, current)
	next[idx] = rec
	return next
}

func indexOf[D domain.Record](items []D, id string) int {
	for i, d := range items {
		if d.RecordID() == id {
			return i
		}
	}
	return -1
}

func prepend[D any](items []D, d D) []D {
	next := make([]D, 0, len(items)+1)
	next = append(next, d)
	return append(next, items...)
}

// sameContent compares serialized state.
func sameContent(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
