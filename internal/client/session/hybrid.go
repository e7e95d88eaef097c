package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

// Hybrid signs users in against the server and falls back to local accounts when the
// server cannot be reached or no server session exists. The store that signed the user
// in answers for the session until logout.
type Hybrid struct {
	mu     sync.Mutex
	remote *Remote
	local  *Local
	active Store
}

var _ Store = (*Hybrid)(nil)

func NewHybrid(remote *Remote, local *Local) *Hybrid {
	return &Hybrid{remote: remote, local: local, active: remote}
}

// Hydrate restores both stores. A server session wins; otherwise a signed-in local
// account is used.
func (h *Hybrid) Hydrate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.remote.Hydrate(ctx); err != nil {
		return err
	}
	if err := h.local.Hydrate(ctx); err != nil {
		return err
	}
	h.active = h.remote
	if h.remote.State() != StateAuthenticated && h.local.State() == StateAuthenticated {
		log.Info().Str("identity", h.local.Identity()).Msg("No server session, using local account")
		h.active = h.local
	}
	return nil
}

func (h *Hybrid) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	return h.signIn(ctx, "signup", func(s Store) (models.User, error) { return s.Signup(ctx, in) })
}

func (h *Hybrid) Login(ctx context.Context, identifier, password string) (models.User, error) {
	return h.signIn(ctx, "login", func(s Store) (models.User, error) { return s.Login(ctx, identifier, password) })
}

// signIn tries the server and retries against local accounts when it is unreachable.
func (h *Hybrid) signIn(ctx context.Context, op string, call func(Store) (models.User, error)) (models.User, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active.State() == StateAuthenticated {
		return models.User{}, &TransitionError{Op: op, State: StateAuthenticated}
	}
	u, err := call(h.remote)
	if err == nil {
		h.active = h.remote
		return u, nil
	}
	if !errors.Is(err, diary.ErrNetwork) {
		return models.User{}, err
	}
	log.Warn().Err(err).Str("op", op).Msg("Server unavailable, using local accounts")
	u, err = call(h.local)
	if err != nil {
		return models.User{}, err
	}
	h.active = h.local
	return u, nil
}

// Logout signs out of every store holding a session.
func (h *Hybrid) Logout(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.remote.State() != StateAuthenticated && h.local.State() != StateAuthenticated {
		return h.active.Logout(ctx)
	}
	var errs []error
	for _, s := range []Store{h.remote, h.local} {
		if s.State() == StateAuthenticated {
			errs = append(errs, s.Logout(ctx))
		}
	}
	h.active = h.remote
	return errors.Join(errs...)
}

func (h *Hybrid) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	return h.current().UpdateProfile(ctx, p)
}

func (h *Hybrid) State() State                 { return h.current().State() }
func (h *Hybrid) Current() (models.User, bool) { return h.current().Current() }
func (h *Hybrid) Identity() string             { return h.current().Identity() }

func (h *Hybrid) SetMigrator(m IdentityMigrator) {
	h.remote.SetMigrator(m)
	h.local.SetMigrator(m)
}

func (h *Hybrid) current() Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
