package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// UserService manages user records.
type UserService struct {
	Gate *Gate
}

// NewUserService constructs a UserService.
func NewUserService(g *Gate) *UserService { return &UserService{Gate: g} }

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[struct{}]{})
	if err != nil {
		return nil, err
	}
	users, err := repo.ListUsers(ctx, r.DB)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return users, nil
}

// Get returns user id.
func (s *UserService) Get(ctx context.Context, p IDParams) (*domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	u, err := repo.GetUser(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// GetByEmail returns the user registered with p.Email.
func (s *UserService) GetByEmail(ctx context.Context, p EmailParams) (*domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[EmailParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	u, err := repo.FindUserByEmail(ctx, r.DB, p.Email)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// Create registers a user. Email and username must both be free.
func (s *UserService) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[CreateUserParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:      strings.TrimSpace(p.Name),
		Username:  p.Username,
		Email:     normalizeEmail(p.Email),
		Bio:       p.Bio,
		Image:     p.Image,
		Location:  p.Location,
		Portfolio: p.Portfolio,
	}
	if p.Reputation != nil {
		u.Reputation = *p.Reputation
	}
	if err := createUser(ctx, r.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies the non-nil fields of p to user p.ID.
func (s *UserService) Update(ctx context.Context, p UpdateUserParams) (*domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[UpdateUserParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("name", p.Name)
	set("username", p.Username)
	set("bio", p.Bio)
	set("image", p.Image)
	set("location", p.Location)
	set("portfolio", p.Portfolio)
	if p.Email != nil {
		fields["email"] = normalizeEmail(*p.Email)
	}
	if p.Reputation != nil {
		fields["reputation"] = *p.Reputation
	}

	u, err := repo.UpdateUser(ctx, r.DB, p.ID, fields)
	if errors.Is(err, repo.ErrDuplicate) {
		email, _ := fields["email"].(string)
		return nil, duplicateUser(ctx, r.DB, email, p.ID)
	}
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// Delete removes user id together with its accounts.
func (s *UserService) Delete(ctx context.Context, p IDParams) (*domain.User, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	u, err := repo.DeleteUser(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// createUser inserts u after checking that its email and username are free.
// The unique indexes close the window between check and insert.
func createUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if _, err := repo.FindUserByEmail(ctx, db, u.Email); err == nil {
		return apperr.Generic(MsgUserExists)
	} else if !repo.IsNotFound(err) {
		return apperr.Wrap(err)
	}
	if _, err := repo.FindUserByUsername(ctx, db, u.Username); err == nil {
		return apperr.Generic(MsgUsernameExists)
	} else if !repo.IsNotFound(err) {
		return apperr.Wrap(err)
	}
	if err := repo.CreateUser(ctx, db, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return duplicateUser(ctx, db, u.Email, u.ID)
		}
		return apperr.Wrap(err)
	}
	return nil
}

// duplicateUser picks the message for a unique violation on users: the email
// when another user holds it, the username otherwise.
func duplicateUser(ctx context.Context, db *gorm.DB, email, selfID string) error {
	if email != "" {
		if other, err := repo.FindUserByEmail(ctx, db, email); err == nil && other.ID != selfID {
			return apperr.Generic(MsgUserExists)
		}
	}
	return apperr.Generic(MsgUsernameExists)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
