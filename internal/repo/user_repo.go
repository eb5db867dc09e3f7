// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and their
// sign-in accounts.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - missing rows return ErrNotFound;
//   - unique index hits return an error wrapping ErrDuplicate;
//   - any other DB error is propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// ListUsers returns all users, newest first.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// GetUser fetches a user by ID.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return firstUser(ctx, db, "id = ?", id)
}

// FindUserByEmail fetches a user by email, compared case-insensitively.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return firstUser(ctx, db, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// FindUserByUsername fetches a user by username.
func FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return firstUser(ctx, db, "username = ?", username)
}

func firstUser(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u, assigning a UUID when ID is empty.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(db.WithContext(ctx).Create(u).Error)
}

// UpdateUser applies the given column values to user id and returns the
// updated row. An empty fields map only reloads the row.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.User, error) {
	if _, err := GetUser(ctx, db, id); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, translate(err)
		}
	}
	return GetUser(ctx, db, id)
}

// DeleteUser removes user id and returns the deleted row. Accounts are
// removed by the foreign key cascade.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return u, nil
}

// AddReputation adjusts a user's reputation by delta.
func AddReputation(ctx context.Context, db *gorm.DB, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	tx := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", delta))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAccounts returns all accounts, newest first.
func ListAccounts(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// GetAccount fetches an account by ID.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	return firstAccount(ctx, db, "id = ?", id)
}

// FindAccountByProvider fetches the account for (provider, providerAccountID).
func FindAccountByProvider(ctx context.Context, db *gorm.DB, provider, providerAccountID string) (*domain.Account, error) {
	return firstAccount(ctx, db, "provider = ? AND provider_account_id = ?", provider, providerAccountID)
}

// FindAccountByProviderAccountID fetches the first account with the given
// provider account ID, whatever the provider.
func FindAccountByProviderAccountID(ctx context.Context, db *gorm.DB, providerAccountID string) (*domain.Account, error) {
	return firstAccount(ctx, db, "provider_account_id = ?", providerAccountID)
}

func firstAccount(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where(query, args...).Order("created_at ASC").First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a, assigning a UUID when ID is empty.
func CreateAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return translate(db.WithContext(ctx).Omit("User").Create(a).Error)
}

// UpdateAccount applies the given column values to account id and returns
// the updated row.
func UpdateAccount(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.Account, error) {
	if _, err := GetAccount(ctx, db, id); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		err := db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, translate(err)
		}
	}
	return GetAccount(ctx, db, id)
}

// DeleteAccount removes account id and returns the deleted row.
func DeleteAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	a, err := GetAccount(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Account{}).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
