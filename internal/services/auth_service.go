package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// AuthService signs users up and in. It returns the session to establish;
// writing the cookie is the transport's job.
type AuthService struct {
	Gate       *Gate
	Bus        events.Bus
	BcryptCost int
}

// NewAuthService constructs an AuthService.
func NewAuthService(g *Gate, bus events.Bus, cost int) *AuthService {
	return &AuthService{Gate: g, Bus: bus, BcryptCost: cost}
}

// SignUp creates a user and its credentials account in one transaction.
func (s *AuthService) SignUp(ctx context.Context, p SignUpParams) (*auth.Session, error) {
	r, err := Run(ctx, s.Gate, Options[SignUpParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(p.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:     strings.TrimSpace(p.Name),
		Username: p.Username,
		Email:    normalizeEmail(p.Email),
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(ctx, tx, u); err != nil {
			return err
		}
		return createAccount(ctx, tx, &domain.Account{
			UserID:            u.ID,
			Name:              u.Name,
			Provider:          ProviderCredentials,
			ProviderAccountID: u.Email,
			Password:          hash,
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	events.PublishSignIn(s.Bus, u.ID)
	return sessionFor(u), nil
}

// SignIn checks an email and password against the credentials account.
func (s *AuthService) SignIn(ctx context.Context, p SignInParams) (*auth.Session, error) {
	r, err := Run(ctx, s.Gate, Options[SignInParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(p.Email)
	u, err := repo.FindUserByEmail(ctx, r.DB, email)
	if err != nil {
		return nil, notFound(err, "User")
	}
	a, err := repo.FindAccountByProvider(ctx, r.DB, ProviderCredentials, email)
	if err != nil {
		return nil, notFound(err, "Account")
	}
	if a.Password == "" {
		return nil, apperr.Unauthorized(MsgCredentialsMissing)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(p.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.Unauthorized(MsgPasswordMismatch)
		}
		return nil, apperr.Wrap(err)
	}

	events.PublishSignIn(s.Bus, u.ID)
	return sessionFor(u), nil
}

// OAuth signs in with an identity vouched for by an OAuth provider. The user
// is found by email or created; its name and image follow the provider. The
// provider account is created on first use.
func (s *AuthService) OAuth(ctx context.Context, p OAuthParams) (*auth.Session, error) {
	r, err := Run(ctx, s.Gate, Options[OAuthParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(p.User.Email)
	name := strings.TrimSpace(p.User.Name)

	var u *domain.User
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.FindUserByEmail(ctx, tx, email)
		switch {
		case err == nil:
			fields := map[string]any{}
			if existing.Name != name {
				fields["name"] = name
			}
			if p.User.Image != "" && existing.Image != p.User.Image {
				fields["image"] = p.User.Image
			}
			if u, err = repo.UpdateUser(ctx, tx, existing.ID, fields); err != nil {
				return err
			}
		case repo.IsNotFound(err):
			username, err := freeUsername(ctx, tx, p.User.Username)
			if err != nil {
				return err
			}
			u = &domain.User{Name: name, Username: username, Email: email, Image: p.User.Image}
			if err := createUser(ctx, tx, u); err != nil {
				return err
			}
		default:
			return err
		}

		_, err = repo.FindAccountByProvider(ctx, tx, p.Provider, p.ProviderAccountID)
		if err == nil || !repo.IsNotFound(err) {
			return err
		}
		return createAccount(ctx, tx, &domain.Account{
			UserID:            u.ID,
			Name:              name,
			Image:             p.User.Image,
			Provider:          p.Provider,
			ProviderAccountID: p.ProviderAccountID,
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	events.PublishSignIn(s.Bus, u.ID)
	return sessionFor(u), nil
}

// Current returns the signed-in caller.
func (s *AuthService) Current(ctx context.Context) (*auth.Session, error) {
	r, err := Run(ctx, s.Gate, Options[struct{}]{Authorize: true})
	if err != nil {
		return nil, err
	}
	return r.Session, nil
}

// freeUsername returns want, or want with a short random suffix when another
// user already holds it.
func freeUsername(ctx context.Context, db *gorm.DB, want string) (string, error) {
	_, err := repo.FindUserByUsername(ctx, db, want)
	if repo.IsNotFound(err) {
		return want, nil
	}
	if err != nil {
		return "", err
	}
	base := want
	if len(base) > 21 {
		base = base[:21]
	}
	base = strings.TrimRight(base, "_")
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8], nil
}

func sessionFor(u *domain.User) *auth.Session {
	return &auth.Session{UserID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}
