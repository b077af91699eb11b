package vault

import "sync"

// Store is the single process-wide holder of the latest vault snapshot
// plus loading and error flags. It is written only by the Reader and
// mutated only through these setters; consumers receive copies and a
// change notification.
type Store struct {
	mu      sync.RWMutex
	vault   *Snapshot
	loading bool
	err     string
	changes chan struct{}
}

// NewStore creates an empty store in the "no vault" state
func NewStore() *Store {
	return &Store{
		changes: make(chan struct{}, 1),
	}
}

// Set replaces the snapshot atomically and clears any error
func (s *Store) Set(snapshot *Snapshot) {
	s.mu.Lock()
	s.vault = snapshot
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// SetLoading sets the loading flag independently of the snapshot
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// SetError sets the error message; an empty message clears it. The
// snapshot is left untouched.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	s.notify()
}

// Clear resets to the "no vault" state, used on wallet disconnect
func (s *Store) Clear() {
	s.mu.Lock()
	s.vault = nil
	s.err = ""
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// Vault returns the current snapshot, or nil when none is loaded
func (s *Store) Vault() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vault
}

// Loading reports whether a read is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the current error message, empty when none
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Changes returns a channel that receives a signal after any field
// change. Signals coalesce; consumers re-read the store on receipt.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
