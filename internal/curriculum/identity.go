package curriculum

import (
	"fmt"

	"github.com/google/uuid"

	"coursecraft/internal/domain"
)

// SyncState is where a node stands relative to the Course API
type SyncState string

const (
	StateLocal     SyncState = "local"     // never persisted
	StateSyncing   SyncState = "syncing"   // request in flight
	StatePersisted SyncState = "persisted" // canonical id assigned
)

// identity is the pending/canonical id pair shared by chapters, lessons and
// notes. The local token never changes; once the server assigns a canonical
// id, ID reports that instead.
type identity struct {
	localID     uuid.UUID
	canonicalID string

	revision uint64 // bumped by every edit
	saved    uint64 // revision the server last confirmed
	syncing  bool
}

func newIdentity() identity {
	return identity{localID: uuid.New(), revision: 1}
}

// LocalID is the editor handle, stable for the life of the session
func (n *identity) LocalID() uuid.UUID { return n.localID }

// CanonicalID is the server id, empty while pending
func (n *identity) CanonicalID() string { return n.canonicalID }

// IsPersisted reports whether the server has assigned an id
func (n *identity) IsPersisted() bool { return n.canonicalID != "" }

// ID returns the canonical id when persisted, otherwise the local token
func (n *identity) ID() string {
	if n.canonicalID != "" {
		return n.canonicalID
	}
	return n.localID.String()
}

// Matches reports whether id names this node by either identity
func (n *identity) Matches(id string) bool {
	if id == "" {
		return false
	}
	return id == n.canonicalID || id == n.localID.String()
}

// State derives the sync state
func (n *identity) State() SyncState {
	switch {
	case n.syncing:
		return StateSyncing
	case n.canonicalID != "":
		return StatePersisted
	default:
		return StateLocal
	}
}

// Revision identifies the current edit generation
func (n *identity) Revision() uint64 { return n.revision }

// Dirty reports whether there are edits the server has not confirmed
func (n *identity) Dirty() bool {
	return n.canonicalID == "" || n.revision != n.saved
}

// BeginSync moves the node to Syncing. Only one request per node at a time.
func (n *identity) BeginSync() error {
	if n.syncing {
		return fmt.Errorf("%s: %w", n.ID(), domain.ErrSyncInProgress)
	}
	n.syncing = true
	return nil
}

// EndSync leaves Syncing without changing the identity (failure path)
func (n *identity) EndSync() {
	n.syncing = false
}

// MarkPersisted records a successful request that carried revision rev.
// A canonical id, once set, is never replaced.
func (n *identity) MarkPersisted(canonicalID string, rev uint64) {
	n.syncing = false
	if n.canonicalID == "" {
		n.canonicalID = canonicalID
	}
	if rev > n.saved {
		n.saved = rev
	}
}

func (n *identity) touch() {
	n.revision++
}

// restore sets the identity of a node loaded from the server or a draft
func (n *identity) restore(canonicalID string, clean bool) {
	n.canonicalID = canonicalID
	if clean && canonicalID != "" {
		n.saved = n.revision
	}
}
