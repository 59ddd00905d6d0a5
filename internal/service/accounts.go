package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/utils"
	"github.com/iliyamo/parking-lot-reservation/internal/validation"
)

// SignUpInput is the registration form.
type SignUpInput struct {
	Email    string `validate:"required,max=120"`
	Name     string `validate:"required,max=80"`
	Password string `validate:"required"`
	Confirm  string `validate:"required"`
}

// ProfileInput is the profile form.  Current must match the stored
// password before anything changes.
type ProfileInput struct {
	Name     string `validate:"required,max=80"`
	Current  string `validate:"required"`
	Password string `validate:"required"`
	Confirm  string `validate:"required"`
}

// AccountService registers, authenticates and updates users.
type AccountService struct {
	users  *repository.UserRepo
	hasher utils.PasswordHasher
	opts   options
}

// NewAccountService wires the user repository and the password hasher.
func NewAccountService(users *repository.UserRepo, hasher utils.PasswordHasher, opts ...Option) *AccountService {
	if users == nil {
		panic("nil UserRepo passed to NewAccountService")
	}
	return &AccountService{users: users, hasher: hasher, opts: newOptions(opts)}
}

// SignUp creates a regular user.  Checks run in this order: every field
// present, password long enough, email not registered, confirmation
// matches.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := validation.Struct(in); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) && !verrs.Has("required") {
			return nil, ErrFieldTooLong
		}
		return nil, ErrMissingFields
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, storageErr("check email", err)
	}
	if exists {
		return nil, repository.ErrEmailExists
	}
	if in.Password != in.Confirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, ErrFieldTooLong
		}
		return nil, storageErr("hash password", err)
	}
	u := &model.User{Email: in.Email, Name: in.Name, PasswordHash: hash, CreatedAt: s.opts.clock()}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, err
		}
		return nil, storageErr("create user", err)
	}
	return u, nil
}

// Authenticate checks an email and password.  An unknown email yields
// repository.ErrUserNotFound and a wrong password ErrIncorrectPassword, so
// the login page can tell the two apart.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, storageErr("load user", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrIncorrectPassword
	}
	return u, nil
}

// UpdateProfile changes the display name and password of userID.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint64, in ProfileInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) && !verrs.Has("required") {
			return nil, ErrFieldTooLong
		}
		return nil, ErrMissingFields
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, storageErr("load user", err)
	}
	if !s.hasher.Verify(u.PasswordHash, in.Current) {
		return nil, ErrIncorrectPassword
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if in.Password != in.Confirm {
		return nil, ErrPasswordMismatch
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, ErrFieldTooLong
		}
		return nil, storageErr("hash password", err)
	}
	if err := s.users.UpdateProfile(ctx, userID, in.Name, hash); err != nil {
		return nil, storageErr("update profile", err)
	}
	u.Name = in.Name
	u.PasswordHash = hash
	return u, nil
}

// EnsureAdmin makes sure the bootstrap administrator exists and carries the
// admin flag.  An existing account keeps its password.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !u.IsAdmin {
			if err := s.users.SetAdmin(ctx, u.ID, true); err != nil {
				return nil, storageErr("promote admin", err)
			}
			u.IsAdmin = true
			logging.Info().Str("email", u.Email).Msg("admin flag restored")
		}
		return u, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, storageErr("load admin", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, storageErr("hash password", err)
	}
	u = &model.User{Email: email, Name: name, PasswordHash: hash, IsAdmin: true, CreatedAt: s.opts.clock()}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storageErr("create admin", err)
	}
	logging.Info().Str("email", u.Email).Msg("admin user created")
	return u, nil
}
