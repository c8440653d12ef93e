package approval

import (
	"sync"
	"time"
)

// Identity names the principal an approval belongs to. An off-the-record
// identity is equivalent to its parent principal: an approval pushed
// from a private window can be completed from the regular one.
type Identity struct {
	PrincipalID  string `json:"principal_id"`
	OffTheRecord bool   `json:"off_the_record"`
}

// SamePrincipal reports whether two identities refer to the same
// principal, ignoring the off-the-record distinction.
func (i Identity) SamePrincipal(other Identity) bool {
	return i.PrincipalID == other.PrincipalID
}

// Manifest describes the item being installed. It is captured typed at
// begin time and carried on the approval unchanged, so completion never
// re-derives fields from loose maps.
type Manifest struct {
	ItemID      string                 `json:"item_id"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Permissions []string               `json:"permissions"`
	Extra       map[string]interface{} `json:"extra"`
}

// Approval is a stored confirmation record for one install item.
type Approval struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Owner     Identity  `json:"owner"`
	Manifest  Manifest  `json:"manifest"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry stores pending approvals between prompt and install.
// Duplicate (owner, item) pairs are permitted; Pop returns the first
// match in insertion order.
type Registry struct {
	mu      sync.Mutex
	entries []*Approval
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry whose entries expire after ttl.
// A zero ttl disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl: ttl,
		now: time.Now,
	}
}

// Push appends an approval. No uniqueness check is performed.
func (r *Registry) Push(a *Approval) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	r.entries = append(r.entries, a)
}

// Pop removes and returns the first approval whose item id matches and
// whose owner is the same principal as owner. A miss returns (nil,
// false); it is a normal outcome, not an error.
func (r *Registry) Pop(owner Identity, itemID string) (*Approval, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	for i, a := range r.entries {
		if a.ItemID == itemID && a.Owner.SamePrincipal(owner) {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return a, true
		}
	}
	return nil, false
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	return len(r.entries)
}

// sweepLocked drops expired entries. Caller holds r.mu.
func (r *Registry) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	live := r.entries[:0]
	for _, a := range r.entries {
		if a.CreatedAt.After(cutoff) {
			live = append(live, a)
		}
	}
	r.entries = live
}
