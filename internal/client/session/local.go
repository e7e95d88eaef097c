package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

// User-facing messages of the local store.
const (
	msgReservedEmail = "That email is reserved."
	msgEmailTaken    = "An account with this email already exists."
	msgUsernameTaken = "Username already taken"
)

// record is a user as persisted under storage.KeyUsers.
type record struct {
	User         models.User `json:"user"`
	PasswordHash string      `json:"passwordHash"`
}

// Local keeps user records in the client's key-value store, keyed by canonical identity.
type Local struct {
	machine
	kv    storage.KV
	users map[string]record
}

var _ Store = (*Local)(nil)

func NewLocal(kv storage.KV, opts ...Option) *Local {
	return &Local{machine: newMachine(opts), kv: kv, users: map[string]record{}}
}

// Hydrate loads the user records, folds alias keys into their canonical identity, seeds
// the admin account and restores the active user. A failed hydration leaves the store
// Anonymous.
func (s *Local) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginHydrate(); err != nil {
		return err
	}
	u, err := s.hydrate(ctx)
	if err != nil {
		s.finishHydrate(nil)
		return fmt.Errorf("session: hydrate: %w", err)
	}
	s.finishHydrate(u)
	return nil
}

func (s *Local) hydrate(ctx context.Context) (*models.User, error) {
	users := map[string]record{}
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = map[string]record{}
	}
	changed := false

	keys := make([]string, 0, len(users))
	for k := range users {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		canon := CanonicalIdentity(key)
		if canon == key {
			continue
		}
		rec := users[key]
		delete(users, key)
		changed = true
		if _, taken := users[canon]; taken {
			log.Warn().Str("alias", key).Str("identity", canon).Str("username", rec.User.Username).
				Msg("Dropping account stored under an alias of an existing account, its entries are merged")
		} else {
			rec.User.Email = canon
			users[canon] = rec
		}
		if err := s.migrate(ctx, key, canon); err != nil {
			return nil, err
		}
	}

	if _, ok := users[AdminIdentity]; !ok {
		rec, err := s.adminRecord()
		if err != nil {
			return nil, err
		}
		users[AdminIdentity] = rec
		changed = true
	}

	pairs := map[string]string{}
	var active string
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeyActiveUser, &active); err != nil {
		return nil, err
	}
	if canon := CanonicalIdentity(active); canon != active {
		if err := s.migrate(ctx, active, canon); err != nil {
			return nil, err
		}
		if err := putJSON(pairs, storage.KeyActiveUser, canon); err != nil {
			return nil, err
		}
		active = canon
	}
	if changed {
		if err := putJSON(pairs, storage.KeyUsers, users); err != nil {
			return nil, err
		}
	}
	if len(pairs) > 0 {
		if err := s.kv.MultiSet(ctx, pairs); err != nil {
			return nil, err
		}
	}

	s.users = users
	rec, ok := users[active]
	if active == "" || !ok {
		return nil, nil
	}
	u := rec.User
	return &u, nil
}

func (s *Local) adminRecord() (record, error) {
	hash, err := utils.HashPassword(AdminPassword)
	if err != nil {
		return record{}, fmt.Errorf("hash admin password: %w", err)
	}
	now := s.now().UTC()
	return record{
		User: models.User{
			ID:           adminUserID,
			Email:        AdminIdentity,
			Username:     AdminUsername,
			FirstName:    AdminFirstName,
			ProfileImage: models.DefaultProfileImage(AdminIdentity),
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		PasswordHash: hash,
	}, nil
}

func (s *Local) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("signup", StateAnonymous); err != nil {
		return models.User{}, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return models.User{}, utils.NewValidationError("email", "Email is required")
	}
	if isReserved(email) {
		return models.User{}, utils.NewValidationError("email", msgReservedEmail)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	key := CanonicalIdentity(email)
	if _, exists := s.users[key]; exists {
		return models.User{}, &diary.ConflictError{Message: msgEmailTaken}
	}
	if in.Password == "" {
		return models.User{}, utils.NewValidationError("password", "Password is required")
	}
	username := strings.TrimSpace(in.Username)
	if username != "" && s.usernameTaken(username, "") {
		return models.User{}, &diary.ConflictError{Message: msgUsernameTaken}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("session: hash password: %w", err)
	}
	now := s.now().UTC()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        key,
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		ProfileImage: models.DefaultProfileImage(key),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	users := cloneUsers(s.users)
	users[key] = record{User: u, PasswordHash: hash}
	if err := s.save(ctx, users, key); err != nil {
		return models.User{}, err
	}
	s.users = users
	s.signIn(u)
	return u, nil
}

// Login resolves identifier as a username first, then as an email.
func (s *Local) Login(ctx context.Context, identifier, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("login", StateAnonymous); err != nil {
		return models.User{}, err
	}

	ident := strings.TrimSpace(identifier)
	rec, ok := s.findByUsername(ident)
	if !ok {
		rec, ok = s.users[CanonicalIdentity(ident)]
	}
	if !ok {
		return models.User{}, diary.ErrInvalidCredentials
	}
	match, err := utils.VerifyPassword(password, rec.PasswordHash)
	if err != nil || !match {
		return models.User{}, diary.ErrInvalidCredentials
	}

	if err := storage.SetJSON(ctx, s.kv, storage.KeyActiveUser, rec.User.Email); err != nil {
		return models.User{}, fmt.Errorf("session: save active user: %w", err)
	}
	s.signIn(rec.User)
	return rec.User, nil
}

func (s *Local) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("logout", StateAuthenticated); err != nil {
		return err
	}
	if err := s.kv.Remove(ctx, storage.KeyActiveUser); err != nil {
		return fmt.Errorf("session: clear active user: %w", err)
	}
	s.signOut()
	return nil
}

// UpdateProfile merges p into the signed-in user. An email change re-keys the user record
// and migrates identity-scoped storage before anything is persisted.
func (s *Local) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireUser(); err != nil {
		return models.User{}, err
	}

	cur := *s.user
	oldKey := CanonicalIdentity(cur.Email)
	next := cur

	if v := trimPtr(p.FirstName); v != nil {
		next.FirstName = *v
	}
	if v := trimPtr(p.LastName); v != nil {
		next.LastName = *v
	}
	if v := trimPtr(p.Phone); v != nil {
		next.Phone = *v
	}
	if v := trimPtr(p.Username); v != nil {
		if *v == "" {
			return models.User{}, utils.NewValidationError("username", "Username is required")
		}
		if !strings.EqualFold(*v, cur.Username) && s.usernameTaken(*v, oldKey) {
			return models.User{}, &diary.ConflictError{Message: msgUsernameTaken}
		}
		next.Username = *v
	}

	newKey := oldKey
	if v := trimPtr(p.Email); v != nil {
		if *v == "" {
			return models.User{}, utils.NewValidationError("email", "Email is required")
		}
		newKey = CanonicalIdentity(*v)
		if newKey != oldKey {
			if isReserved(*v) {
				return models.User{}, utils.NewValidationError("email", msgReservedEmail)
			}
			if err := utils.ValidateEmail(*v); err != nil {
				return models.User{}, err
			}
			if _, taken := s.users[newKey]; taken {
				return models.User{}, &diary.ConflictError{Message: msgEmailTaken}
			}
		}
		next.Email = newKey
	}
	next.UpdatedAt = s.now().UTC()

	users := cloneUsers(s.users)
	rec := users[oldKey]
	rec.User = next
	delete(users, oldKey)
	users[newKey] = rec

	if err := s.migrate(ctx, oldKey, newKey); err != nil {
		return models.User{}, err
	}
	if err := s.save(ctx, users, newKey); err != nil {
		if rerr := s.migrate(ctx, newKey, oldKey); rerr != nil {
			log.Error().Err(rerr).Str("identity", newKey).Msg("Failed to roll back identity migration")
		}
		return models.User{}, err
	}

	s.users = users
	s.user = &next
	return next, nil
}

// save writes the user map and the active pointer in one transaction.
func (s *Local) save(ctx context.Context, users map[string]record, active string) error {
	pairs := map[string]string{}
	if err := putJSON(pairs, storage.KeyUsers, users); err != nil {
		return err
	}
	if err := putJSON(pairs, storage.KeyActiveUser, active); err != nil {
		return err
	}
	if err := s.kv.MultiSet(ctx, pairs); err != nil {
		return fmt.Errorf("session: save users: %w", err)
	}
	return nil
}

func (s *Local) findByUsername(username string) (record, bool) {
	if username == "" {
		return record{}, false
	}
	for _, rec := range s.users {
		if strings.EqualFold(rec.User.Username, username) {
			return rec, true
		}
	}
	return record{}, false
}

// usernameTaken reports whether another identity than except already uses username.
func (s *Local) usernameTaken(username, except string) bool {
	rec, ok := s.findByUsername(username)
	return ok && CanonicalIdentity(rec.User.Email) != except
}

func cloneUsers(in map[string]record) map[string]record {
	out := make(map[string]record, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func putJSON(pairs map[string]string, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	pairs[key] = string(raw)
	return nil
}
