// Package session resolves who is using the diary client. A Store keeps either local
// user records or a remote bearer token and walks a small state machine:
// Uninitialized, Hydrating, then Authenticated or Anonymous.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

// State is the lifecycle position of a Store.
type State int

const (
	StateUninitialized State = iota
	StateHydrating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("session: invalid state transition")

// TransitionError names the rejected operation and the state it was attempted in.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s while %s", ErrInvalidTransition, e.Op, e.State)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Reserved admin account, seeded by the local store.
const (
	AdminIdentity  = "admin"
	AdminPassword  = "admin"
	AdminUsername  = "01234567890"
	AdminFirstName = "Admin"
	adminUserID    = "user-admin"
	adminAltEmail  = "admin@admin.com"
)

// CanonicalIdentity is the storage key for an email: trimmed and lower-cased, with the
// admin aliases folded together.
func CanonicalIdentity(email string) string {
	id := strings.ToLower(strings.TrimSpace(email))
	if id == adminAltEmail {
		return AdminIdentity
	}
	return id
}

func isReserved(email string) bool {
	return CanonicalIdentity(email) == AdminIdentity
}

// SignupInput holds the fields collected at sign up.
type SignupInput struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// IdentityMigrator re-keys identity-scoped data when a user's canonical identity changes.
type IdentityMigrator interface {
	Migrate(ctx context.Context, from, to string) error
}

// Store is implemented by Local and Remote.
type Store interface {
	State() State
	Hydrate(ctx context.Context) error
	Signup(ctx context.Context, in SignupInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (models.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error)
	// Current returns the signed-in user.
	Current() (models.User, bool)
	// Identity is the canonical identity of the signed-in user, or "".
	Identity() string
	SetMigrator(m IdentityMigrator)
}

// machine holds the state shared by both stores. Callers hold mu.
type machine struct {
	mu       sync.Mutex
	state    State
	user     *models.User
	migrator IdentityMigrator
	now      func() time.Time
}

// Option configures a Store.
type Option func(*machine)

// WithMigrator installs the hook run when the signed-in identity changes.
func WithMigrator(im IdentityMigrator) Option {
	return func(m *machine) { m.migrator = im }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *machine) { m.now = now }
}

func newMachine(opts []Option) machine {
	m := machine{now: time.Now}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine) Current() (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

func (m *machine) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return CanonicalIdentity(m.user.Email)
}

func (m *machine) SetMigrator(im IdentityMigrator) {
	m.mu.Lock()
	m.migrator = im
	m.mu.Unlock()
}

// require fails with ErrInvalidTransition unless the store is in one of want.
func (m *machine) require(op string, want ...State) error {
	for _, s := range want {
		if m.state == s {
			return nil
		}
	}
	return &TransitionError{Op: op, State: m.state}
}

// beginHydrate moves Uninitialized to Hydrating.
func (m *machine) beginHydrate() error {
	if err := m.require("hydrate", StateUninitialized); err != nil {
		return err
	}
	m.state = StateHydrating
	return nil
}

// finishHydrate settles the hydration result. A nil user means Anonymous.
func (m *machine) finishHydrate(u *models.User) {
	m.user = u
	if u != nil {
		m.state = StateAuthenticated
		return
	}
	m.state = StateAnonymous
}

func (m *machine) signIn(u models.User) {
	m.user = &u
	m.state = StateAuthenticated
}

func (m *machine) signOut() {
	m.user = nil
	m.state = StateAnonymous
}

// requireUser checks that profile operations have a signed-in user.
func (m *machine) requireUser() error {
	if m.state != StateAuthenticated || m.user == nil {
		return diary.ErrAuthRequired
	}
	return nil
}

func (m *machine) migrate(ctx context.Context, from, to string) error {
	if m.migrator == nil || from == to {
		return nil
	}
	if err := m.migrator.Migrate(ctx, from, to); err != nil {
		return fmt.Errorf("session: migrate %s to %s: %w", from, to, err)
	}
	return nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
