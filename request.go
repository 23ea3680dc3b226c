package blizzard

import (
	"sync"
)

// Completion is invoked at most once when a reply to a prior Request
// arrives: err is set for an error reply. result is a json.RawMessage for
// an ordinary JSON reply, or a []byte for a reply reassembled from
// BUFFER_RESPONSE frames (spec §4.3, §4.7) — the two share one callback
// shape because either can answer any request, decided only by what the
// callee passed to Reply.
type Completion func(err *Error, result any)

// requestTable maps outstanding caller ids to their pending completion
// (spec §3, §4.5). Entries are consumed exactly once: take() removes the
// entry atomically with the lookup, so a completion can never fire twice
// and a reply for an already-completed id finds nothing.
type requestTable struct {
	mu      sync.Mutex
	pending map[uint32]Completion
}

func newRequestTable() *requestTable {
	return &requestTable{pending: make(map[uint32]Completion)}
}

// insert registers completion for id. Callers must not insert for id==0.
func (t *requestTable) insert(id uint32, completion Completion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[id] = completion
}

// take removes and returns the completion for id, and whether one existed.
func (t *requestTable) take(id uint32) (Completion, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	return c, ok
}

// len reports the number of in-flight requests.
func (t *requestTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
