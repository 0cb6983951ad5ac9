package state

import "sync"

const (
	dedupeCap  = 1000
	dedupeKeep = 500
)

// Dedupe keeps a bounded set of recently seen platform event ids so duplicate
// webhook deliveries become no-ops. The set lives in memory only; duplicates
// arriving right after a restart are rare and cheap to reprocess.
type Dedupe struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func NewDedupe() *Dedupe {
	return &Dedupe{seen: make(map[string]struct{})}
}

// Seen marks the id and reports whether it was already present. When the set
// grows past the cap it is trimmed to the most recent half.
func (d *Dedupe) Seen(eventID string) bool {
	if eventID == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[eventID]; ok {
		return true
	}
	d.seen[eventID] = struct{}{}
	d.order = append(d.order, eventID)

	if len(d.order) > dedupeCap {
		drop := d.order[:len(d.order)-dedupeKeep]
		for _, id := range drop {
			delete(d.seen, id)
		}
		d.order = append([]string(nil), d.order[len(d.order)-dedupeKeep:]...)
	}
	return false
}

func (d *Dedupe) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}
