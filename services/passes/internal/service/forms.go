package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/form"
	"github.com/diagnosis/gatepass/services/passes/internal/repository"
)

type sessionKey struct {
	residentID int64
	variant    domain.Variant
}

// FormRegistry owns the open pass forms. Each resident has at most one live form per variant;
// opening again always starts from a clean draft. Forms untouched for FormIdleTTL are dropped,
// unless a submission is in flight.
type FormRegistry struct {
	mu       sync.Mutex
	forms    map[string]*form.PassForm
	active   map[sessionKey]string
	lastUsed map[string]time.Time

	profiles repository.ProfileRepository
	settings Settings
	now      func() time.Time
	newID    func() string
}

func NewFormRegistry(profiles repository.ProfileRepository, settings Settings) *FormRegistry {
	return &FormRegistry{
		forms:    make(map[string]*form.PassForm),
		active:   make(map[sessionKey]string),
		lastUsed: make(map[string]time.Time),
		profiles: profiles,
		settings: settings.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (r *FormRegistry) Open(ctx context.Context, residentID int64, variant domain.Variant) (*form.PassForm, error) {
	if _, ok := variant.Schema(); !ok {
		return nil, domain.ErrUnknownVariant
	}

	owner := form.Owner{ResidentID: residentID}
	profile, err := r.profiles.GetByResidentID(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resident profile: %w", err)
	}
	if profile != nil {
		owner.Name = profile.Name
		owner.Email = profile.Email
		owner.UnitCode = profile.ResolveUnitCode()
	}
	if owner.UnitCode == "" {
		logger.DebugContext(ctx, "No unit code for resident, pass id will use guest prefix", "resident_id", residentID)
	}

	f := form.New(r.newID(), owner, variant,
		form.WithClock(r.now),
		form.WithLocation(r.settings.Location),
		form.WithMinimumDuration(r.settings.MinDuration),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.evictIdle(now)

	key := sessionKey{residentID: residentID, variant: variant}
	if prev, ok := r.active[key]; ok {
		delete(r.forms, prev)
		delete(r.lastUsed, prev)
	}
	r.forms[f.ID()] = f
	r.active[key] = f.ID()
	r.lastUsed[f.ID()] = now
	return f, nil
}

// Get returns the form only to its owner. A stale or foreign id is ErrFormNotFound.
func (r *FormRegistry) Get(residentID int64, id string) (*form.PassForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.evictIdle(now)

	f, ok := r.forms[id]
	if !ok || f.Owner().ResidentID != residentID {
		return nil, domain.ErrFormNotFound
	}
	r.lastUsed[id] = now
	return f, nil
}

// evictIdle must be called with r.mu held.
func (r *FormRegistry) evictIdle(now time.Time) {
	for id, f := range r.forms {
		if now.Sub(r.lastUsed[id]) < r.settings.FormIdleTTL {
			continue
		}
		switch f.State().(type) {
		case form.Validating, form.Submitting:
			continue
		}
		delete(r.forms, id)
		delete(r.lastUsed, id)
		key := sessionKey{residentID: f.Owner().ResidentID, variant: f.Variant()}
		if r.active[key] == id {
			delete(r.active, key)
		}
	}
}
