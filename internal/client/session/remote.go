package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/client/api"
	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

// AuthAPI is the subset of *api.Client used by Remote.
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
	Login(ctx context.Context, username, password string) (api.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error)
	SetToken(token string)
	Token() string
}

// persisted is the value stored under storage.KeySession.
type persisted struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Remote delegates accounts to the REST API and keeps the bearer token in local storage.
type Remote struct {
	machine
	api AuthAPI
	kv  storage.KV
}

var _ Store = (*Remote)(nil)

func NewRemote(client AuthAPI, kv storage.KV, opts ...Option) *Remote {
	return &Remote{machine: newMachine(opts), api: client, kv: kv}
}

// Hydrate restores the saved token and refreshes the user from the server. A rejected
// token drops the session; an unreachable server keeps the cached user.
func (s *Remote) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginHydrate(); err != nil {
		return err
	}

	var saved persisted
	found, err := storage.GetJSON(ctx, s.kv, storage.KeySession, &saved)
	if err != nil {
		s.finishHydrate(nil)
		return fmt.Errorf("session: hydrate: %w", err)
	}
	if !found || saved.Token == "" {
		s.finishHydrate(nil)
		return nil
	}

	s.api.SetToken(saved.Token)
	u, err := s.api.Me(ctx)
	switch {
	case err == nil:
		saved.User = u
		if err := storage.SetJSON(ctx, s.kv, storage.KeySession, saved); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh saved session")
		}
	case errors.Is(err, diary.ErrAuthRequired):
		log.Info().Msg("Saved session expired, signing out")
		s.api.SetToken("")
		if err := s.kv.Remove(ctx, storage.KeySession); err != nil {
			log.Warn().Err(err).Msg("Failed to clear expired session")
		}
		s.finishHydrate(nil)
		return nil
	default:
		log.Warn().Err(err).Msg("Could not refresh user, using saved session")
	}

	user := saved.User
	s.finishHydrate(&user)
	return nil
}

func (s *Remote) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("signup", StateAnonymous); err != nil {
		return models.User{}, err
	}
	res, err := s.api.Register(ctx, api.RegisterRequest{
		Email:     in.Email,
		Password:  in.Password,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, res)
}

func (s *Remote) Login(ctx context.Context, identifier, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("login", StateAnonymous); err != nil {
		return models.User{}, err
	}
	res, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, res)
}

func (s *Remote) establish(ctx context.Context, res api.AuthResponse) (models.User, error) {
	if err := storage.SetJSON(ctx, s.kv, storage.KeySession, persisted{Token: res.Token, User: res.User}); err != nil {
		return models.User{}, fmt.Errorf("session: save session: %w", err)
	}
	s.api.SetToken(res.Token)
	s.signIn(res.User)
	return res.User, nil
}

// Logout revokes the token on the server when reachable and always clears it locally.
func (s *Remote) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("logout", StateAuthenticated); err != nil {
		return err
	}
	if err := s.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Server logout failed, clearing local session")
	}
	s.api.SetToken("")
	if err := s.kv.Remove(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("session: clear session: %w", err)
	}
	s.signOut()
	return nil
}

func (s *Remote) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireUser(); err != nil {
		return models.User{}, err
	}
	oldKey := CanonicalIdentity(s.user.Email)

	u, err := s.api.UpdateProfile(ctx, p)
	if err != nil {
		return models.User{}, err
	}
	if err := s.migrate(ctx, oldKey, CanonicalIdentity(u.Email)); err != nil {
		return models.User{}, err
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeySession, persisted{Token: s.api.Token(), User: u}); err != nil {
		log.Warn().Err(err).Msg("Failed to save updated profile")
	}
	s.user = &u
	return u, nil
}
