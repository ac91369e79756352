package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelov/huddle/internal/core"
	"github.com/avelov/huddle/internal/domain"
)

// Registry is the single source of truth for who is present and which
// connections belong to whom. The two maps always share their key set:
// a profile exists iff its connection set is non-empty. Every mutation
// happens under the mutex, so no caller can observe them out of step.
type Registry struct {
	mu         sync.RWMutex
	profiles   map[domain.UserID]*domain.Profile
	conns      map[domain.UserID]map[core.Conn]struct{}
	maxPerUser int
}

// Stats is a read-only aggregate view for operators.
type Stats struct {
	TotalUsers int                   `json:"totalUsers"`
	TotalConns int                   `json:"totalConnections"`
	PerUser    map[domain.UserID]int `json:"perUser"`
}

// NewRegistry builds an empty registry. maxPerUser caps concurrent
// connections per identity; 0 means unlimited.
func NewRegistry(maxPerUser int) *Registry {
	return &Registry{
		profiles:   make(map[domain.UserID]*domain.Profile),
		conns:      make(map[domain.UserID]map[core.Conn]struct{}),
		maxPerUser: maxPerUser,
	}
}

// OnOpen admits an already-authenticated connection. The first connection
// of a user creates its profile and announces the join to everyone else;
// additional connections (second tab) only grow the set, silently. The
// new connection itself always receives a welcome ack followed by the
// roster, which at that point already includes the joiner.
func (r *Registry) OnOpen(c core.Conn, id domain.UserID, email string) error {
	if id == "" {
		return domain.ErrEmptyIdentity
	}

	r.mu.Lock()
	if r.maxPerUser > 0 && len(r.conns[id]) >= r.maxPerUser {
		limit := r.maxPerUser
		r.mu.Unlock()
		log.Warn().Str("module", "app.registry").Str("user", string(id)).Int("limit", limit).Msg("admission rejected: at capacity")
		return &CapacityError{Identity: id, Limit: limit}
	}

	prof, known := r.profiles[id]
	if !known {
		var err error
		prof, err = domain.NewProfile(id, email, time.Now())
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.profiles[id] = prof
		r.conns[id] = make(map[core.Conn]struct{})
	}
	r.conns[id][c] = struct{}{}
	joined := *prof
	roster := r.rosterLocked()
	r.mu.Unlock()

	r.SendTo(c, core.Welcome{Type: core.KindWelcome, User: joined})
	r.SendTo(c, core.Roster{Type: core.KindRoster, Users: roster})
	if !known {
		r.BroadcastExcept(core.UserJoined{Type: core.KindJoined, User: joined}, id)
		log.Info().Str("module", "app.registry").Str("user", string(id)).Str("email", email).Msg("user joined")
	} else {
		log.Debug().Str("module", "app.registry").Str("user", string(id)).Int("conns", r.ConnCount(id)).Msg("additional connection")
	}
	return nil
}

// OnClose retires one connection. Removing an unknown connection is a
// no-op. Draining the last connection removes the profile and announces
// the departure to everyone still connected.
func (r *Registry) OnClose(c core.Conn, id domain.UserID) {
	r.mu.Lock()
	set, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) > 0 {
		r.mu.Unlock()
		log.Debug().Str("module", "app.registry").Str("user", string(id)).Int("conns", len(set)).Msg("connection closed, user still present")
		return
	}
	prof := r.profiles[id]
	delete(r.conns, id)
	delete(r.profiles, id)
	r.mu.Unlock()

	r.Broadcast(core.UserLeft{Type: core.KindLeft, UserID: prof.ID, Email: prof.Email}, nil)
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("user left")
}

// Broadcast fans v out to every open connection of every user, skipping
// except when given. Openness is checked right before each send because
// a socket may close between enumeration and delivery. Send failures are
// best-effort and swallowed.
func (r *Registry) Broadcast(v any, except core.Conn) {
	frame, err := encode(v)
	if err != nil {
		return
	}
	for _, c := range r.allConns() {
		if c == except {
			continue
		}
		r.deliver(c, frame)
	}
}

// BroadcastExcept fans v out to every user other than exceptID, covering
// all of that user's connections at once.
func (r *Registry) BroadcastExcept(v any, exceptID domain.UserID) {
	frame, err := encode(v)
	if err != nil {
		return
	}
	r.mu.RLock()
	targets := make([]core.Conn, 0, len(r.conns))
	for id, set := range r.conns {
		if id == exceptID {
			continue
		}
		for c := range set {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range targets {
		r.deliver(c, frame)
	}
}

// SendTo delivers v to a single connection; no-op when it is closed.
func (r *Registry) SendTo(c core.Conn, v any) {
	frame, err := encode(v)
	if err != nil {
		return
	}
	r.deliver(c, frame)
}

// Profile returns a copy of the presence record for id.
func (r *Registry) Profile(id domain.UserID) (domain.Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.Profile{}, false
	}
	return *p, true
}

// Roster returns a snapshot of every present user. Order is stable for
// a given state but otherwise unspecified.
func (r *Registry) Roster() []domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

func (r *Registry) IsPresent(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.profiles[id]
	return ok
}

func (r *Registry) ConnCount(id domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[id])
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{PerUser: make(map[domain.UserID]int, len(r.conns))}
	for id, set := range r.conns {
		s.PerUser[id] = len(set)
		s.TotalConns += len(set)
	}
	s.TotalUsers = len(r.profiles)
	return s
}

func (r *Registry) rosterLocked() []domain.Profile {
	out := make([]domain.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out
}

func (r *Registry) allConns() []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Conn, 0, len(r.conns))
	for _, set := range r.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) deliver(c core.Conn, frame core.Frame) {
	if !c.IsOpen() {
		return
	}
	if err := c.Send(frame); err != nil {
		log.Debug().Str("module", "app.registry").Err(err).Msg("send dropped")
	}
}

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Str("module", "app.registry").Err(err).Msg("encode payload")
		return nil, err
	}
	return b, nil
}
