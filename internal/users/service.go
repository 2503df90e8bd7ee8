package users

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	Insert(ctx context.Context, name, username, hash string, isAdmin bool) (int64, error)
	Credentials(ctx context.Context, username string) (Credentials, error)
	List(ctx context.Context) ([]Profile, error)
	ByUsername(ctx context.Context, username string) (Profile, error)
	Patch(ctx context.Context, username string, p UserPatch) error
}

var errBadLogin = apperr.Unauthorized("Invalid username or password")

type Service struct {
	Store Store
	Log   zerolog.Logger
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func (s *Service) Register(ctx context.Context, in Registration) (int64, error) {
	in.Name, in.Username = strings.TrimSpace(in.Name), strings.TrimSpace(in.Username)
	if in.Name == "" || in.Username == "" || in.Password == "" || in.IsAdmin == nil {
		return 0, apperr.Validation("Please provide name, username, password")
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return 0, apperr.Validation("invalid password: %v", err)
	}
	id, err := s.Store.Insert(ctx, in.Name, in.Username, string(hash), *in.IsAdmin)
	if err != nil {
		return 0, err
	}
	s.Log.Info().Int64("user_id", id).Str("username", in.Username).Msg("user registered")
	return id, nil
}

// Login checks the password. Unknown users and wrong passwords fail the same
// way.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	return s.login(ctx, username, password, false)
}

// AdminLogin is Login restricted to admin accounts.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (Account, error) {
	return s.login(ctx, username, password, true)
}

func (s *Service) login(ctx context.Context, username, password string, admin bool) (Account, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Account{}, apperr.Validation("Username and password are required.")
	}
	c, err := s.Store.Credentials(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return Account{}, errBadLogin
	}
	if err != nil {
		return Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) != nil {
		return Account{}, errBadLogin
	}
	if admin && !c.IsAdmin {
		return Account{}, errBadLogin
	}
	return c.Account, nil
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.Store.List(ctx)
}

func (s *Service) Get(ctx context.Context, username string) (Profile, error) {
	return s.Store.ByUsername(ctx, username)
}

func (s *Service) Patch(ctx context.Context, username string, p UserPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation("name must not be empty")
	}
	return s.Store.Patch(ctx, username, p)
}
