package app

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/transport"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionID string

type Entry struct {
	ID      SessionID
	Session *core.RoomSession
	Feed    *Feed
	Created time.Time
}

// CreateOptions override the registry defaults for one session.
type CreateOptions struct {
	Gateway   string
	Autopilot *domain.AutopilotMode
	APM       *domain.APMConfig
}

// Registry owns the sessions of a process. Every session is created with
// the shared transport factory and audio graph, and publishes its
// notifications to its Feed.
type Registry struct {
	factory  transport.Factory
	defaults core.Options
	// Policy is handed to every new Feed.
	Policy Policy

	mu      sync.RWMutex
	entries map[SessionID]*Entry
}

func NewRegistry(factory transport.Factory, defaults core.Options) *Registry {
	return &Registry{
		factory:  factory,
		defaults: defaults,
		entries:  make(map[SessionID]*Entry),
	}
}

func (r *Registry) Create(opts CreateOptions) (*Entry, error) {
	o := r.defaults
	if opts.Gateway != "" {
		o.Gateway = opts.Gateway
	}
	if opts.Autopilot != nil {
		o.Autopilot = *opts.Autopilot
	}
	if opts.APM != nil {
		apm := *opts.APM
		o.APM = &apm
	}
	o.Delegate = nil

	s, err := core.NewRoomSession(r.factory, o)
	if err != nil {
		return nil, err
	}
	return r.Register(s), nil
}

// Register adds an existing session and makes its Feed the delegate.
func (r *Registry) Register(s *core.RoomSession) *Entry {
	id := SessionID(uuid.NewString())
	e := &Entry{
		ID:      id,
		Session: s,
		Feed:    NewFeed(id, r.Policy),
		Created: time.Now(),
	}
	s.SetDelegate(e.Feed)

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("registered session")
	return e
}

func (r *Registry) Get(id SessionID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Remove closes the session and its feed.
func (r *Registry) Remove(id SessionID) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	err := closeEntry(e)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("removed session")
	return err
}

// List returns the entries oldest first.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Entry) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll closes every session; the registry stays usable.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[SessionID]*Entry)
	r.mu.Unlock()

	var errs []error
	for id, e := range entries {
		if err := closeEntry(e); err != nil {
			errs = append(errs, err)
		}
		log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("closed session")
	}
	return errors.Join(errs...)
}

func closeEntry(e *Entry) error {
	e.Session.SetDelegate(nil)
	err := e.Session.Close()
	e.Feed.Close()
	return err
}
