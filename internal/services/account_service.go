package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// AccountService manages the sign-in accounts linked to users.
type AccountService struct {
	Gate *Gate
	// BcryptCost is used when hashing passwords; zero means bcrypt.DefaultCost.
	BcryptCost int
}

// NewAccountService constructs an AccountService.
func NewAccountService(g *Gate, cost int) *AccountService {
	return &AccountService{Gate: g, BcryptCost: cost}
}

// List returns every account.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[struct{}]{})
	if err != nil {
		return nil, err
	}
	accounts, err := repo.ListAccounts(ctx, r.DB)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return accounts, nil
}

// Get returns account id.
func (s *AccountService) Get(ctx context.Context, p IDParams) (*domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	a, err := repo.GetAccount(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Account")
	}
	return a, nil
}

// GetByProvider returns the account registered under p.ProviderAccountID.
func (s *AccountService) GetByProvider(ctx context.Context, p ProviderParams) (*domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[ProviderParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	a, err := repo.FindAccountByProviderAccountID(ctx, r.DB, p.ProviderAccountID)
	if err != nil {
		return nil, notFound(err, "Account")
	}
	return a, nil
}

// Create links a new account to an existing user. A (provider,
// providerAccountId) pair can be registered once.
func (s *AccountService) Create(ctx context.Context, p CreateAccountParams) (*domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[CreateAccountParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetUser(ctx, r.DB, p.UserID); err != nil {
		return nil, notFound(err, "User")
	}
	a := &domain.Account{
		UserID:            p.UserID,
		Name:              strings.TrimSpace(p.Name),
		Image:             p.Image,
		Provider:          p.Provider,
		ProviderAccountID: p.ProviderAccountID,
	}
	if p.Password != "" {
		if a.Password, err = hashPassword(p.Password, s.BcryptCost); err != nil {
			return nil, err
		}
	}
	if err := createAccount(ctx, r.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies the non-nil fields of p to account p.ID.
func (s *AccountService) Update(ctx context.Context, p UpdateAccountParams) (*domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[UpdateAccountParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	if p.Password != nil {
		h, err := hashPassword(*p.Password, s.BcryptCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = h
	}
	a, err := repo.UpdateAccount(ctx, r.DB, p.ID, fields)
	if err != nil {
		return nil, notFound(err, "Account")
	}
	return a, nil
}

// Delete removes account id.
func (s *AccountService) Delete(ctx context.Context, p IDParams) (*domain.Account, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	a, err := repo.DeleteAccount(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Account")
	}
	return a, nil
}

func createAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	if _, err := repo.FindAccountByProvider(ctx, db, a.Provider, a.ProviderAccountID); err == nil {
		return apperr.Forbidden(MsgAccountExists)
	} else if !repo.IsNotFound(err) {
		return apperr.Wrap(err)
	}
	if err := repo.CreateAccount(ctx, db, a); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return apperr.Forbidden(MsgAccountExists)
		}
		return apperr.Wrap(err)
	}
	return nil
}

func hashPassword(pw string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", apperr.Wrap(err)
	}
	return string(h), nil
}
