package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

type UserRepo struct {
	*Store[domain.User, *domain.User]
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{Store: NewStore[domain.User](db, "user", "username", "email", "first_name", "last_name")}
}

// FindByLogin matches username or email exactly (case-sensitive).
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := Active(r.conn(ctx).Model(&domain.User{})).
		Where("username = ? OR email = ?", login, login).
		Order("created_at ASC").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user", login)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByRefreshToken(ctx context.Context, digest string) (*domain.User, error) {
	if digest == "" {
		return nil, domain.NotFound("user", "")
	}
	var u domain.User
	err := Active(r.conn(ctx).Model(&domain.User{})).Where("refresh_token = ?", digest).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user", "")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
