package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/shopstudy/shopstudy-backend/internal/directory"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// API is the remote auth surface the service talks to.
type API interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, input RegistrationInput) (int, error)
}

// Directory resolves registered demo accounts to their emails.
type Directory interface {
	ListUsers(ctx context.Context) ([]directory.User, error)
}

// Service implements login and registration over the demo API, backed by
// find-or-create against the local record store. Passwords never persist
// locally; the remote API is the only judge of credentials.
type Service struct {
	store     *userstore.Store
	projector *session.Projector
	api       API
	directory Directory
	logg      *logger.Logger
}

// ServiceParams groups the service's dependencies.
type ServiceParams struct {
	Store     *userstore.Store
	Projector *session.Projector
	API       API
	Directory Directory
	Logger    *logger.Logger
}

// NewService builds the auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("user store is required")
	}
	if params.Projector == nil {
		return nil, errors.New("session projector is required")
	}
	if params.API == nil {
		return nil, errors.New("auth api client is required")
	}
	return &Service{
		store:     params.Store,
		projector: params.Projector,
		api:       params.API,
		directory: params.Directory,
		logg:      params.Logger,
	}, nil
}

// Login checks the credentials against the remote API, then finds or
// creates the matching local record and activates the session with it.
func (s *Service) Login(ctx context.Context, username, password string) (*userstore.UserRecord, error) {
	if _, err := s.api.Login(ctx, Credentials{Username: username, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		created, err := s.store.CreateUser(ctx, username, s.resolveEmail(ctx, username))
		if err != nil {
			return nil, err
		}
		user = &created
	}

	return s.activate(ctx, user.ID)
}

// Register validates the input, creates the account remotely and locally,
// and activates the session with the new record.
func (s *Service) Register(ctx context.Context, username, email, password string) (*userstore.UserRecord, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	if _, err := s.api.Register(ctx, RegistrationInput{Email: email, Username: username, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, email)
	if err != nil {
		return nil, err
	}
	return s.activate(ctx, user.ID)
}

func (s *Service) activate(ctx context.Context, userID int) (*userstore.UserRecord, error) {
	if err := s.store.TouchLastLogin(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.projector.Login(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.User(ctx, userID)
}

// resolveEmail looks the username up in the demo user directory. A directory
// failure or an unknown username falls back to a synthesized address so
// first login can still create the local record.
func (s *Service) resolveEmail(ctx context.Context, username string) string {
	if s.directory != nil {
		users, err := s.directory.ListUsers(ctx)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "user directory lookup failed, synthesizing email", err)
			}
		} else {
			for _, u := range users {
				if strings.EqualFold(u.Username, username) {
					return u.Email
				}
			}
		}
	}
	return username + "@example.com"
}

func validateRegistration(username, email, password string) error {
	details := map[string]string{}
	if strings.TrimSpace(username) == "" {
		details["username"] = "username is required"
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		details["email"] = "email address is invalid"
	}
	if len(password) < 6 {
		details["password"] = "password must be at least 6 characters"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "registration input is invalid").WithDetails(details)
	}
	return nil
}
