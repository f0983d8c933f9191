// Package lobby holds the authoritative in-memory state: the user registry
// (nickname -> identity) and the room registry (lifecycle, membership,
// readiness, host migration).
package lobby

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"cardtable-online/internal/store"
)

const storeTimeout = 2 * time.Second

// Identity is the response payload of user_set_name.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Users is the user registry. One mutex guards both indexes and the id
// counter; it is held for the duration of a single handler call.
type Users struct {
	mu     sync.Mutex
	byName map[string]int64
	byID   map[int64]string
	nextID int64

	store store.UserStore // optional write-through, may be nil
}

// NewUsers creates a user registry. st may be nil; persistence is
// best-effort and never affects registry semantics.
func NewUsers(st store.UserStore) *Users {
	return &Users{
		byName: make(map[string]int64),
		byID:   make(map[int64]string),
		store:  st,
	}
}

// SetName claims or renames an identity. curID and curName are the
// connection's current binding (zero values when unbound); the returned
// Identity is the new binding the caller must cache.
func (u *Users) SetName(curID int64, curName, nickname string) (Identity, error) {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return Identity{}, ErrInvalidUsername
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if curID != 0 {
		if curName == trimmed {
			return Identity{ID: curID, Username: trimmed}, nil
		}
		if curName != "" {
			if other, taken := u.byName[trimmed]; taken && other != curID {
				return Identity{}, ErrUserExists
			}
			delete(u.byName, curName)
			u.byName[trimmed] = curID
			u.byID[curID] = trimmed
			u.persist(curID, trimmed)
			return Identity{ID: curID, Username: trimmed}, nil
		}
		// A bound id without a cached name should not happen; drop the
		// stale entry and fall through to a fresh claim.
		u.removeLocked(curID)
	}

	if _, taken := u.byName[trimmed]; taken {
		return Identity{}, ErrUserExists
	}

	u.nextID++
	id := u.nextID
	u.byName[trimmed] = id
	u.byID[id] = trimmed
	u.persist(id, trimmed)
	return Identity{ID: id, Username: trimmed}, nil
}

// Remove deletes the identity, freeing its nickname.
func (u *Users) Remove(id int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removeLocked(id)
}

func (u *Users) removeLocked(id int64) {
	name, ok := u.byID[id]
	if !ok {
		return
	}
	delete(u.byID, id)
	delete(u.byName, name)

	if u.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := u.store.DeleteUser(ctx, id); err != nil {
			log.Printf("store: failed to delete user %d: %v", id, err)
		}
	}
}

// Lookup returns the id bound to a nickname.
func (u *Users) Lookup(nickname string) (int64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id, ok := u.byName[nickname]
	return id, ok
}

// Count returns the number of registered identities.
func (u *Users) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byName)
}

func (u *Users) persist(id int64, username string) {
	if u.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := u.store.SaveUser(ctx, id, username); err != nil {
		log.Printf("store: failed to save user %d: %v", id, err)
	}
}
