package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/quickwish/quickwish/internal/wish"
)

// Store keeps wishes and user records in memory. Entries never expire;
// the dev server's state lives only as long as the process.
type Store struct {
	// mu serializes read-modify-write sequences; the caches alone only
	// protect individual operations.
	mu     sync.Mutex
	wishes *gocache.Cache
	users  *gocache.Cache
}

// SavedAddress is one address book entry.
type SavedAddress struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// UserRecord is the mutable per-user state.
type UserRecord struct {
	ID        string         `json:"user_id"`
	Phone     string         `json:"phone,omitempty"`
	Addresses []SavedAddress `json:"addresses"`
}

func NewStore() *Store {
	return &Store{
		wishes: gocache.New(gocache.NoExpiration, 0),
		users:  gocache.New(gocache.NoExpiration, 0),
	}
}

// CreateWish stores a new wish for the user and returns it.
func (s *Store) CreateWish(userID string, req wish.CreateRequest) *wish.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()

	w := &wish.Wish{
		ID:            fmt.Sprintf("wish_%x", id[:6]),
		UserID:        userID,
		Type:          req.Type,
		SubCategory:   req.SubCategory,
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		RadiusKm:      req.RadiusKm,
		Remuneration:  req.Remuneration,
		IsImmediate:   req.IsImmediate,
		ScheduledTime: req.ScheduledTime,
		Status:        wish.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	s.wishes.Set(w.ID, w, gocache.NoExpiration)

	return w
}

// ListWishes returns the user's wishes, newest first.
func (s *Store) ListWishes(userID string) []*wish.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.wishes.Items()

	out := make([]*wish.Wish, 0, len(items))
	for _, item := range items {
		w, ok := item.Object.(*wish.Wish)
		if !ok || w.UserID != userID {
			continue
		}

		out = append(out, w)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// GetWish returns a wish by ID, or nil.
func (s *Store) GetWish(id string) *wish.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getWish(id)
}

func (s *Store) getWish(id string) *wish.Wish {
	item, found := s.wishes.Get(id)
	if !found {
		return nil
	}

	w, _ := item.(*wish.Wish)

	return w
}

// UpdateWish replaces the editable fields of a pending wish.
func (s *Store) UpdateWish(w *wish.Wish, req wish.CreateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Type = req.Type
	w.SubCategory = req.SubCategory
	w.Title = req.Title
	w.Description = req.Description
	w.Location = req.Location
	w.RadiusKm = req.RadiusKm
	w.Remuneration = req.Remuneration
	w.IsImmediate = req.IsImmediate
	w.ScheduledTime = req.ScheduledTime

	s.wishes.Set(w.ID, w, gocache.NoExpiration)
}

// SetStatus transitions a wish when its current status is one of from.
func (s *Store) SetStatus(w *wish.Wish, to string, from ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := false
	for _, f := range from {
		if w.Status == f {
			allowed = true

			break
		}
	}

	if !allowed {
		return false
	}

	w.Status = to
	s.wishes.Set(w.ID, w, gocache.NoExpiration)

	return true
}

// DeleteWish removes a wish owned by the user.
func (s *Store) DeleteWish(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getWish(id)
	if w == nil || w.UserID != userID {
		return false
	}

	s.wishes.Delete(id)

	return true
}

// User returns the user record, creating it on first touch.
func (s *Store) User(userID string) *UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user(userID)
}

func (s *Store) user(userID string) *UserRecord {
	if item, found := s.users.Get(userID); found {
		if rec, ok := item.(*UserRecord); ok {
			return rec
		}
	}

	rec := &UserRecord{ID: userID, Addresses: []SavedAddress{}}
	s.users.Set(userID, rec, gocache.NoExpiration)

	return rec
}

// SetPhone updates the user's phone number.
func (s *Store) SetPhone(userID, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.user(userID)
	rec.Phone = phone
	s.users.Set(userID, rec, gocache.NoExpiration)
}

// AddAddress appends an address book entry and returns it with its
// generated ID.
func (s *Store) AddAddress(userID string, addr SavedAddress) SavedAddress {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr.ID = uuid.NewString()

	rec := s.user(userID)
	rec.Addresses = append(rec.Addresses, addr)
	s.users.Set(userID, rec, gocache.NoExpiration)

	return addr
}

// DeleteAddress removes an address book entry by ID.
func (s *Store) DeleteAddress(userID, addressID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.user(userID)

	kept := rec.Addresses[:0]
	for _, addr := range rec.Addresses {
		if addr.ID != addressID {
			kept = append(kept, addr)
		}
	}

	rec.Addresses = kept
	s.users.Set(userID, rec, gocache.NoExpiration)
}
