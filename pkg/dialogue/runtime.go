package dialogue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// runtimeState holds per-session flags that are deliberately not persisted:
// the early-complete marker (and its dismissal) only shape which buttons the
// presentation layer offers, so losing them on restart degrades a session to
// plain Active/Depth-Exhausted without corrupting anything.
type runtimeState struct {
	EarlyComplete bool
}

// runtimeStore keeps runtime state in memory and guards the one-outstanding-
// call-per-session rule.
type runtimeStore struct {
	cache *cache.Cache

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

func newRuntimeStore() *runtimeStore {
	return &runtimeStore{
		cache:    cache.New(1*time.Hour, 10*time.Minute),
		inFlight: make(map[uuid.UUID]bool),
	}
}

func (r *runtimeStore) get(sessionID uuid.UUID) runtimeState {
	if x, found := r.cache.Get(sessionID.String()); found {
		return x.(runtimeState)
	}
	return runtimeState{}
}

func (r *runtimeStore) save(sessionID uuid.UUID, state runtimeState) {
	r.cache.Set(sessionID.String(), state, cache.DefaultExpiration)
}

func (r *runtimeStore) delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}

// acquire marks a session busy. Returns false if a call is already in flight.
func (r *runtimeStore) acquire(sessionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[sessionID] {
		return false
	}
	r.inFlight[sessionID] = true
	return true
}

func (r *runtimeStore) release(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, sessionID)
}
