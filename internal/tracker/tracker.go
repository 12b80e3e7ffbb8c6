// Package tracker keeps the roster of the first N members, hands out the
// early-member bonus and freezes itself once the capacity is reached.
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one occupied slot. Immutable once created; removal is the only
// mutation.
type Entry struct {
	ID       uint64    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// User carries what the tracker needs to know about a candidate.
type User struct {
	ID       uint64
	Name     string
	JoinedAt time.Time // zero means "now"
}

// RoleGranter issues the bonus role for a freshly allocated slot. Grant
// failures never roll the slot back.
type RoleGranter interface {
	GrantReward(ctx context.Context, userID uint64) error
}

type Status struct {
	Tracked  int
	Capacity int
	Locked   bool
}

// Tracker owns the roster state. All mutation goes through one mutex, so
// the status/export surfaces stay safe even if event delivery ever becomes
// parallel. Invariants: len(entries) == len(ids), len(entries) <= capacity,
// no id appears twice, and locked is sticky until Reset.
type Tracker struct {
	mu       sync.Mutex
	entries  []Entry
	ids      map[uint64]struct{}
	capacity int
	locked   bool

	store   *Store
	rewards RoleGranter
	log     *zap.Logger
}

// New builds a tracker seeded from the store. An absent or corrupt state
// file just means an empty roster.
func New(capacity int, store *Store, rewards RoleGranter, log *zap.Logger) *Tracker {
	t := &Tracker{
		ids:      make(map[uint64]struct{}),
		capacity: capacity,
		store:    store,
		rewards:  rewards,
		log:      log,
	}
	if store != nil {
		for _, e := range store.Load() {
			if _, dup := t.ids[e.ID]; dup {
				continue
			}
			t.entries = append(t.entries, e)
			t.ids[e.ID] = struct{}{}
		}
	}
	if len(t.entries) >= t.capacity {
		t.locked = true
	}
	return t
}

// Allocate grants a slot to the user if the roster is open, not full and
// the user holds no slot yet. It persists the roster, then attempts the
// bonus role grant; neither a storage nor a grant failure undoes the slot.
func (t *Tracker) Allocate(ctx context.Context, u User) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locked {
		return false
	}
	if len(t.entries) >= t.capacity {
		// full but not yet marked: lock on discovery
		t.locked = true
		return false
	}
	if _, taken := t.ids[u.ID]; taken {
		return false
	}

	joined := u.JoinedAt
	if joined.IsZero() {
		joined = time.Now()
	}
	t.entries = append(t.entries, Entry{ID: u.ID, Name: u.Name, JoinedAt: joined.UTC()})
	t.ids[u.ID] = struct{}{}
	t.persistLocked()

	if t.rewards != nil {
		if err := t.rewards.GrantReward(ctx, u.ID); err != nil {
			t.log.Warn("bonus role grant failed",
				zap.Uint64("user", u.ID), zap.Error(err))
		}
	}

	if len(t.entries) >= t.capacity {
		t.locked = true
		t.log.Info("tracker full, roster locked", zap.Int("capacity", t.capacity))
	}

	t.log.Info("slot allocated",
		zap.Uint64("user", u.ID),
		zap.String("name", u.Name),
		zap.Int("tracked", len(t.entries)))
	return true
}

// Release frees the user's slot if the roster is still open: an early slot
// is a provisional reservation tied to continued membership. Once locked
// the roster is frozen, departures included.
func (t *Tracker) Release(userID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locked {
		return false
	}
	if _, ok := t.ids[userID]; !ok {
		return false
	}

	delete(t.ids, userID)
	for i := range t.entries {
		if t.entries[i].ID == userID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	t.persistLocked()

	t.log.Info("slot released",
		zap.Uint64("user", userID), zap.Int("tracked", len(t.entries)))
	return true
}

// Reset clears the roster and unlocks. The admin gate lives at the command
// surface.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
	t.ids = make(map[uint64]struct{})
	t.locked = false
	t.persistLocked()

	t.log.Info("tracker reset")
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Tracked: len(t.entries), Capacity: t.capacity, Locked: t.locked}
}

// Entries returns a copy of the roster in allocation order.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// persistLocked saves under t.mu. A write failure is logged, not
// propagated: the in-memory roster stays authoritative for this process.
func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.entries); err != nil {
		t.log.Warn("persist roster failed", zap.Error(err))
	}
}
